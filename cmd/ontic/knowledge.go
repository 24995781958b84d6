// Knowledge commands: add, get, list, link, search, delete.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

var knowledgeCmd = &cobra.Command{
	Use:     "knowledge",
	Aliases: []string{"know"},
	Short:   "Manage knowledge items and embedding search",
}

var (
	knowType      string
	knowText      string
	knowEmbedding string
	knowSource    string
	knowQuery     string
	knowRole      string
	knowMinScore  float64
	knowLimit     int
)

func init() {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a knowledge item",
		Args:  cobra.NoArgs,
		RunE:  runKnowledgeAdd,
	}
	addCmd.Flags().StringVar(&knowType, "type", "", "knowledge type: label, document, chunk, vector_only (required)")
	addCmd.Flags().StringVar(&knowText, "text", "", "text content")
	addCmd.Flags().StringVar(&knowEmbedding, "embedding", "", "embedding vector as a JSON float array")
	addCmd.Flags().StringVar(&knowSource, "source", "", "source thing id")
	_ = addCmd.MarkFlagRequired("type")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a knowledge item by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := current.knowledge.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(k)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge items, newest first",
		Args:  cobra.NoArgs,
		RunE:  runKnowledgeList,
	}
	listCmd.Flags().StringVar(&knowType, "type", "", "filter by knowledge type")
	listCmd.Flags().StringVar(&knowSource, "source", "", "filter by source thing id")
	listCmd.Flags().StringVar(&knowQuery, "query", "", "substring match on text")
	listCmd.Flags().IntVar(&knowLimit, "limit", 0, "maximum results")

	linkCmd := &cobra.Command{
		Use:   "link <thing-id> <knowledge-id>",
		Short: "Link a knowledge item to a thing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := current.knowledge.Link(cmd.Context(), flagActor, args[0], args[1], knowRole)
			if err != nil {
				return err
			}
			return printEntity(link)
		},
	}
	linkCmd.Flags().StringVar(&knowRole, "role", "", "link role: label, summary, chunk_of, caption, keyword")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search knowledge by embedding similarity",
		Args:  cobra.NoArgs,
		RunE:  runKnowledgeSearch,
	}
	searchCmd.Flags().StringVar(&knowEmbedding, "embedding", "", "query vector as a JSON float array (required)")
	searchCmd.Flags().StringVar(&knowType, "type", "", "restrict to one knowledge type")
	searchCmd.Flags().StringVar(&knowSource, "source", "", "restrict to one source thing id")
	searchCmd.Flags().Float64Var(&knowMinScore, "min-score", 0, "drop matches below this similarity")
	searchCmd.Flags().IntVar(&knowLimit, "limit", 0, "maximum results")
	_ = searchCmd.MarkFlagRequired("embedding")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge item and its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.knowledge.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}

	knowledgeCmd.AddCommand(addCmd, getCmd, listCmd, linkCmd, searchCmd, deleteCmd)
}

func runKnowledgeAdd(cmd *cobra.Command, args []string) error {
	emb, err := parseEmbedding(knowEmbedding)
	if err != nil {
		return err
	}
	created, err := current.knowledge.Create(cmd.Context(), &types.Knowledge{
		KnowledgeType: knowType,
		Text:          knowText,
		Embedding:     emb,
		SourceThingID: knowSource,
	})
	if err != nil {
		return err
	}
	return printEntity(created)
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	items, err := current.knowledge.List(cmd.Context(), types.KnowledgeFilter{
		Query:         knowQuery,
		SourceThingID: knowSource,
		KnowledgeType: knowType,
		Limit:         knowLimit,
	})
	if err != nil {
		return err
	}
	return printEntity(items)
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	emb, err := parseEmbedding(knowEmbedding)
	if err != nil {
		return err
	}
	matches, err := current.knowledge.Search(cmd.Context(), emb, types.SearchOptions{
		Limit:         knowLimit,
		MinScore:      knowMinScore,
		KnowledgeType: knowType,
		SourceThingID: knowSource,
	})
	if err != nil {
		return err
	}
	return printEntity(matches)
}
