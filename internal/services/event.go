package services

import (
	"context"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// EventService exposes the append-only event log. There is no update or
// delete: immutability is enforced by construction, not by runtime checks.
type EventService struct {
	provider types.Provider
}

// NewEventService builds an event service.
func NewEventService(provider types.Provider) *EventService {
	return &EventService{provider: provider}
}

// Get retrieves an event by ID.
func (s *EventService) Get(ctx context.Context, id string) (*types.Event, error) {
	return s.provider.GetEvent(ctx, id)
}

// Append records a new event.
func (s *EventService) Append(ctx context.Context, input *types.Event) (*types.Event, error) {
	return s.provider.CreateEvent(ctx, input)
}

// List returns events matching the filter, newest first.
func (s *EventService) List(ctx context.Context, filter types.EventFilter) ([]*types.Event, error) {
	return s.provider.ListEvents(ctx, filter)
}
