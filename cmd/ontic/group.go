// Group commands: create, get, list, update, delete, usage.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups and plan usage",
}

var (
	groupSlug   string
	groupName   string
	groupType   string
	groupParent string
	groupPlan   string
	groupStatus string
	groupLimit  int
	groupOffset int
	bySlug      bool
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE:  runGroupCreate,
	}
	createCmd.Flags().StringVar(&groupSlug, "slug", "", "unique slug (required)")
	createCmd.Flags().StringVar(&groupName, "name", "", "display name (required)")
	createCmd.Flags().StringVar(&groupType, "type", "", "group type")
	createCmd.Flags().StringVar(&groupParent, "parent", "", "parent group id")
	createCmd.Flags().StringVar(&groupPlan, "plan", types.PlanFree, "plan: free, starter, pro")
	_ = createCmd.MarkFlagRequired("slug")
	_ = createCmd.MarkFlagRequired("name")

	getCmd := &cobra.Command{
		Use:   "get <id-or-slug>",
		Short: "Get a group by id, or by slug with --slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var g *types.Group
			var err error
			if bySlug {
				g, err = current.groups.GetBySlug(cmd.Context(), args[0])
			} else {
				g, err = current.groups.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printEntity(g)
		},
	}
	getCmd.Flags().BoolVar(&bySlug, "slug", false, "treat the argument as a slug")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List groups, newest first",
		Args:  cobra.NoArgs,
		RunE:  runGroupList,
	}
	listCmd.Flags().StringVar(&groupType, "type", "", "filter by group type")
	listCmd.Flags().StringVar(&groupStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&groupParent, "parent", "", "filter by parent group id")
	listCmd.Flags().IntVar(&groupLimit, "limit", 0, "maximum results")
	listCmd.Flags().IntVar(&groupOffset, "offset", 0, "results to skip")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a group",
		Args:  cobra.ExactArgs(1),
		RunE:  runGroupUpdate,
	}
	updateCmd.Flags().StringVar(&groupName, "name", "", "new display name")
	updateCmd.Flags().StringVar(&groupStatus, "status", "", "new status")
	updateCmd.Flags().StringVar(&groupParent, "parent", "", "new parent group id")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Archive a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.groups.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("archived", args[0])
			return nil
		},
	}

	usageCmd := &cobra.Command{
		Use:   "usage <id> <resource> [delta]",
		Short: "Show or adjust a group's resource usage counter",
		Long: `With two arguments, usage prints the group's counters. With a third
integer argument it consumes (positive) or releases (negative) that many
units, enforcing the group's plan ceiling on consumption.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: runGroupUsage,
	}

	groupCmd.AddCommand(createCmd, getCmd, listCmd, updateCmd, deleteCmd, usageCmd)
}

func runGroupCreate(cmd *cobra.Command, args []string) error {
	created, err := current.groups.Create(cmd.Context(), flagActor, &types.Group{
		Slug:          groupSlug,
		Name:          groupName,
		Type:          groupType,
		ParentGroupID: groupParent,
		Settings:      types.GroupSettings{Plan: groupPlan},
	})
	if err != nil {
		return err
	}
	return printEntity(created)
}

func runGroupList(cmd *cobra.Command, args []string) error {
	groups, err := current.groups.List(cmd.Context(), types.GroupFilter{
		Type:          groupType,
		Status:        groupStatus,
		ParentGroupID: groupParent,
		Limit:         groupLimit,
		Offset:        groupOffset,
	})
	if err != nil {
		return err
	}
	return printEntity(groups)
}

func runGroupUpdate(cmd *cobra.Command, args []string) error {
	var patch types.GroupPatch
	if cmd.Flags().Changed("name") {
		patch.Name = &groupName
	}
	if cmd.Flags().Changed("status") {
		patch.Status = &groupStatus
	}
	if cmd.Flags().Changed("parent") {
		patch.ParentGroupID = &groupParent
	}
	updated, err := current.groups.Update(cmd.Context(), args[0], patch)
	if err != nil {
		return err
	}
	return printEntity(updated)
}

func runGroupUsage(cmd *cobra.Command, args []string) error {
	groupID, resource := args[0], args[1]
	if len(args) == 2 {
		g, err := current.groups.Get(cmd.Context(), groupID)
		if err != nil {
			return err
		}
		return printEntity(g.Usage)
	}

	delta, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("delta must be an integer: %w", err)
	}
	used, err := current.groups.ConsumeResource(cmd.Context(), groupID, resource, delta)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s = %d\n", groupID, resource, used)
	return nil
}
