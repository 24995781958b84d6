package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

const eventColumns = "event_id, type, actor_id, target_id, metadata, group_id, timestamp"

func hydrateEvent(row rowScanner) (*types.Event, error) {
	var e types.Event
	var meta, ts string
	err := row.Scan(&e.EventID, &e.Type, &e.ActorID, &e.TargetID, &meta,
		&e.GroupID, &ts)
	if err != nil {
		return nil, err
	}
	e.Metadata = decodeMap(meta)
	e.Timestamp = parseTime(ts)
	return &e, nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (*types.Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE event_id = ?", id)
	e, err := hydrateEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewQueryFailed("event not found: "+id, nil)
		}
		return nil, types.NewQueryFailed("getting event "+id, err)
	}
	return e, nil
}

// ListEvents returns events matching the filter, timestamp descending.
func (s *Store) ListEvents(ctx context.Context, filter types.EventFilter) ([]*types.Event, error) {
	var conds []string
	var args []any
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.ActorID != "" {
		conds = append(conds, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.TargetID != "" {
		conds = append(conds, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if filter.Since != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	if filter.Until != nil {
		conds = append(conds, "timestamp < ?")
		args = append(args, formatTime(*filter.Until))
	}

	query := "SELECT " + eventColumns + " FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, event_id DESC"
	query += limitClause(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewQueryFailed("listing events", err)
	}
	defer rows.Close()

	results := make([]*types.Event, 0)
	for rows.Next() {
		e, err := hydrateEvent(rows)
		if err != nil {
			return nil, types.NewQueryFailed("scanning event row", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewQueryFailed("listing events", err)
	}
	return results, nil
}

// CreateEvent appends an immutable event. A zero timestamp is stamped with
// the current time. There is no update or delete path for events.
func (s *Store) CreateEvent(ctx context.Context, input *types.Event) (*types.Event, error) {
	if err := input.Validate(); err != nil {
		return nil, types.NewEventCreateFailed(err.Error(), err)
	}

	e := *input
	e.EventID = s.newID()
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}

	meta, err := encodeJSON(e.Metadata)
	if err != nil {
		return nil, types.NewEventCreateFailed("encoding metadata", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.EventID, e.Type, e.ActorID, e.TargetID, meta, e.GroupID,
		formatTime(e.Timestamp))
	if err != nil {
		return nil, types.NewEventCreateFailed("persisting event", err)
	}
	return &e, nil
}
