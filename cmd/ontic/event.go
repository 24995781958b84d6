// Event commands: append, get, list. Events are immutable; there is no
// update or delete.
package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Append and inspect the event log",
}

var (
	eventType     string
	eventTarget   string
	eventMetadata string
	eventSince    string
	eventUntil    string
	eventLimit    int
	eventOffset   int
)

func init() {
	appendCmd := &cobra.Command{
		Use:   "append",
		Short: "Append an event",
		Args:  cobra.NoArgs,
		RunE:  runEventAppend,
	}
	appendCmd.Flags().StringVar(&eventType, "type", "", "event type (required)")
	appendCmd.Flags().StringVar(&eventTarget, "target", "", "target entity id")
	appendCmd.Flags().StringVar(&eventMetadata, "metadata", "", "metadata as a JSON object")
	_ = appendCmd.MarkFlagRequired("type")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get an event by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := current.events.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printEntity(e)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events, newest first",
		Args:  cobra.NoArgs,
		RunE:  runEventList,
	}
	listCmd.Flags().StringVar(&eventType, "type", "", "filter by event type")
	listCmd.Flags().StringVar(&eventTarget, "target", "", "filter by target entity id")
	listCmd.Flags().StringVar(&eventSince, "since", "", "inclusive lower bound (RFC 3339)")
	listCmd.Flags().StringVar(&eventUntil, "until", "", "exclusive upper bound (RFC 3339)")
	listCmd.Flags().IntVar(&eventLimit, "limit", 0, "maximum results")
	listCmd.Flags().IntVar(&eventOffset, "offset", 0, "results to skip")

	eventCmd.AddCommand(appendCmd, getCmd, listCmd)
}

func runEventAppend(cmd *cobra.Command, args []string) error {
	meta, err := parseJSONMap(eventMetadata)
	if err != nil {
		return err
	}
	created, err := current.events.Append(cmd.Context(), &types.Event{
		Type:     eventType,
		ActorID:  flagActor,
		TargetID: eventTarget,
		Metadata: meta,
	})
	if err != nil {
		return err
	}
	return printEntity(created)
}

func runEventList(cmd *cobra.Command, args []string) error {
	filter := types.EventFilter{
		Type:     eventType,
		TargetID: eventTarget,
		Limit:    eventLimit,
		Offset:   eventOffset,
	}
	if eventSince != "" {
		t, err := time.Parse(time.RFC3339, eventSince)
		if err != nil {
			return err
		}
		filter.Since = &t
	}
	if eventUntil != "" {
		t, err := time.Parse(time.RFC3339, eventUntil)
		if err != nil {
			return err
		}
		filter.Until = &t
	}
	events, err := current.events.List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return printEntity(events)
}
