// Connection commands: create, get, list, delete.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

var connectionCmd = &cobra.Command{
	Use:     "connection",
	Aliases: []string{"conn"},
	Short:   "Manage connections between entities",
}

var (
	connFrom     string
	connTo       string
	connRel      string
	connMetadata string
	connLimit    int
	connOffset   int
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a directed connection",
		Args:  cobra.NoArgs,
		RunE:  runConnectionCreate,
	}
	createCmd.Flags().StringVar(&connFrom, "from", "", "source entity id (required)")
	createCmd.Flags().StringVar(&connTo, "to", "", "target entity id (required)")
	createCmd.Flags().StringVar(&connRel, "rel", "", "relationship type (required)")
	createCmd.Flags().StringVar(&connMetadata, "metadata", "", "metadata as a JSON object")
	_ = createCmd.MarkFlagRequired("from")
	_ = createCmd.MarkFlagRequired("to")
	_ = createCmd.MarkFlagRequired("rel")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a connection by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := current.connections.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(c)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List connections, newest first",
		Args:  cobra.NoArgs,
		RunE:  runConnectionList,
	}
	listCmd.Flags().StringVar(&connFrom, "from", "", "filter by source entity id")
	listCmd.Flags().StringVar(&connTo, "to", "", "filter by target entity id")
	listCmd.Flags().StringVar(&connRel, "rel", "", "filter by relationship type")
	listCmd.Flags().IntVar(&connLimit, "limit", 0, "maximum results")
	listCmd.Flags().IntVar(&connOffset, "offset", 0, "results to skip")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a connection (hard delete)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.connections.Delete(cmd.Context(), flagActor, args[0]); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}

	connectionCmd.AddCommand(createCmd, getCmd, listCmd, deleteCmd)
}

func runConnectionCreate(cmd *cobra.Command, args []string) error {
	meta, err := parseJSONMap(connMetadata)
	if err != nil {
		return err
	}
	created, err := current.connections.Create(cmd.Context(), flagActor, &types.Connection{
		FromEntityID:     connFrom,
		ToEntityID:       connTo,
		RelationshipType: connRel,
		Metadata:         meta,
	})
	if err != nil {
		return err
	}
	return printEntity(created)
}

func runConnectionList(cmd *cobra.Command, args []string) error {
	conns, err := current.connections.List(cmd.Context(), types.ConnectionFilter{
		FromEntityID:     connFrom,
		ToEntityID:       connTo,
		RelationshipType: connRel,
		Limit:            connLimit,
		Offset:           connOffset,
	})
	if err != nil {
		return err
	}
	return printEntity(conns)
}
