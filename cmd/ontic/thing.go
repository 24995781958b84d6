// Thing commands: create, get, list, update, delete.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

var thingCmd = &cobra.Command{
	Use:   "thing",
	Short: "Manage things",
}

var (
	thingType       string
	thingName       string
	thingProperties string
	thingGroupID    string
	thingStatus     string
	thingLimit      int
	thingOffset     int
)

func init() {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a thing",
		Args:  cobra.NoArgs,
		RunE:  runThingCreate,
	}
	createCmd.Flags().StringVar(&thingType, "type", "", "entity type (required)")
	createCmd.Flags().StringVar(&thingName, "name", "", "display name (required)")
	createCmd.Flags().StringVar(&thingProperties, "properties", "", "property bag as a JSON object")
	createCmd.Flags().StringVar(&thingGroupID, "group", "", "owning group id")
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("name")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a thing by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := current.things.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(t)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List things, newest first",
		Args:  cobra.NoArgs,
		RunE:  runThingList,
	}
	listCmd.Flags().StringVar(&thingType, "type", "", "filter by entity type")
	listCmd.Flags().StringVar(&thingStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&thingGroupID, "group", "", "filter by group id")
	listCmd.Flags().IntVar(&thingLimit, "limit", 0, "maximum results")
	listCmd.Flags().IntVar(&thingOffset, "offset", 0, "results to skip")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a thing",
		Args:  cobra.ExactArgs(1),
		RunE:  runThingUpdate,
	}
	updateCmd.Flags().StringVar(&thingName, "name", "", "new display name")
	updateCmd.Flags().StringVar(&thingStatus, "status", "", "new status (must follow the transition graph)")
	updateCmd.Flags().StringVar(&thingProperties, "properties", "", "properties to merge, as a JSON object")
	updateCmd.Flags().StringVar(&thingGroupID, "group", "", "new owning group id")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Archive a thing (soft delete)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.things.Delete(cmd.Context(), flagActor, args[0]); err != nil {
				return err
			}
			fmt.Println("archived", args[0])
			return nil
		},
	}

	thingCmd.AddCommand(createCmd, getCmd, listCmd, updateCmd, deleteCmd)
}

func runThingCreate(cmd *cobra.Command, args []string) error {
	props, err := parseJSONMap(thingProperties)
	if err != nil {
		return err
	}
	created, err := current.things.Create(cmd.Context(), flagActor, &types.Thing{
		Type:       thingType,
		Name:       thingName,
		Properties: props,
		GroupID:    thingGroupID,
	})
	if err != nil {
		return err
	}
	return printEntity(created)
}

func runThingList(cmd *cobra.Command, args []string) error {
	things, err := current.things.List(cmd.Context(), types.ThingFilter{
		Type:    thingType,
		Status:  thingStatus,
		GroupID: thingGroupID,
		Limit:   thingLimit,
		Offset:  thingOffset,
	})
	if err != nil {
		return err
	}
	return printEntity(things)
}

func runThingUpdate(cmd *cobra.Command, args []string) error {
	var patch types.ThingPatch
	if cmd.Flags().Changed("name") {
		patch.Name = &thingName
	}
	if cmd.Flags().Changed("status") {
		patch.Status = &thingStatus
	}
	if cmd.Flags().Changed("group") {
		patch.GroupID = &thingGroupID
	}
	if cmd.Flags().Changed("properties") {
		props, err := parseJSONMap(thingProperties)
		if err != nil {
			return err
		}
		patch.Properties = props
	}
	updated, err := current.things.Update(cmd.Context(), flagActor, args[0], patch)
	if err != nil {
		return err
	}
	return printEntity(updated)
}
