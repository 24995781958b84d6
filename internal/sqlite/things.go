package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

const thingColumns = "thing_id, type, name, properties, status, group_id, created_at, updated_at, deleted_at"

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func hydrateThing(row rowScanner) (*types.Thing, error) {
	var t types.Thing
	var props, createdAt, updatedAt string
	var deletedAt sql.NullString
	err := row.Scan(&t.ThingID, &t.Type, &t.Name, &props, &t.Status,
		&t.GroupID, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	t.Properties = decodeMap(props)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	if deletedAt.Valid {
		d := parseTime(deletedAt.String)
		t.DeletedAt = &d
	}
	return &t, nil
}

// GetThing retrieves a thing by ID. Soft-deleted things remain readable.
func (s *Store) GetThing(ctx context.Context, id string) (*types.Thing, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+thingColumns+" FROM things WHERE thing_id = ?", id)
	t, err := hydrateThing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewThingNotFound(id)
		}
		return nil, types.NewQueryFailed(fmt.Sprintf("getting thing %s", id), err)
	}
	return t, nil
}

// ListThings returns things matching the filter, created_at descending.
func (s *Store) ListThings(ctx context.Context, filter types.ThingFilter) ([]*types.Thing, error) {
	var conds []string
	var args []any
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.GroupID != "" {
		conds = append(conds, "group_id = ?")
		args = append(args, filter.GroupID)
	}

	query := "SELECT " + thingColumns + " FROM things"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, thing_id DESC"
	query += limitClause(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewQueryFailed("listing things", err)
	}
	defer rows.Close()

	results := make([]*types.Thing, 0)
	for rows.Next() {
		t, err := hydrateThing(rows)
		if err != nil {
			return nil, types.NewQueryFailed("scanning thing row", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewQueryFailed("listing things", err)
	}
	return results, nil
}

// CreateThing persists a new thing, stamping id, draft status, and
// timestamps.
func (s *Store) CreateThing(ctx context.Context, input *types.Thing) (*types.Thing, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	t := *input
	t.ThingID = s.newID()
	if t.Status == "" {
		t.Status = types.StatusDraft
	} else if !types.ValidStatus(t.Status) {
		return nil, types.NewThingCreateFailed("unrecognized status: "+t.Status, nil)
	}
	now := s.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.DeletedAt = nil
	if t.Properties == nil {
		t.Properties = make(map[string]any)
	}

	props, err := encodeJSON(t.Properties)
	if err != nil {
		return nil, types.NewThingCreateFailed("encoding properties", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO things ("+thingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)",
		t.ThingID, t.Type, t.Name, props, t.Status, t.GroupID,
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, types.NewThingCreateFailed("persisting thing", err)
	}
	return &t, nil
}

// UpdateThing applies a partial update inside one transaction. An empty
// patch touches only UpdatedAt.
func (s *Store) UpdateThing(ctx context.Context, id string, patch types.ThingPatch) (*types.Thing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, types.NewThingUpdateFailed(id, "beginning transaction", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+thingColumns+" FROM things WHERE thing_id = ?", id)
	t, err := hydrateThing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewThingNotFound(id)
		}
		return nil, types.NewThingUpdateFailed(id, "reading thing", err)
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, types.NewThingUpdateFailed(id, "name must not be empty", nil)
		}
		t.Name = *patch.Name
	}
	if patch.Status != nil {
		if !types.ValidStatus(*patch.Status) {
			return nil, types.NewThingUpdateFailed(id, "unrecognized status: "+*patch.Status, nil)
		}
		t.Status = *patch.Status
	}
	if patch.GroupID != nil {
		t.GroupID = *patch.GroupID
	}
	if patch.Properties != nil {
		if err := types.ValidateProperties(t.Type, patch.Properties); err != nil {
			return nil, err
		}
		for k, v := range patch.Properties {
			t.Properties[k] = v
		}
	}
	t.UpdatedAt = s.now().UTC()

	props, err := encodeJSON(t.Properties)
	if err != nil {
		return nil, types.NewThingUpdateFailed(id, "encoding properties", err)
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE things SET name = ?, status = ?, group_id = ?, properties = ?, updated_at = ? WHERE thing_id = ?",
		t.Name, t.Status, t.GroupID, props, formatTime(t.UpdatedAt), id)
	if err != nil {
		return nil, types.NewThingUpdateFailed(id, "persisting thing", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, types.NewThingUpdateFailed(id, "committing thing", err)
	}
	return t, nil
}

// DeleteThing soft-deletes: archives the thing and stamps deleted_at. The
// record remains readable.
func (s *Store) DeleteThing(ctx context.Context, id string) error {
	now := formatTime(s.now().UTC())
	res, err := s.db.ExecContext(ctx,
		"UPDATE things SET status = ?, deleted_at = ?, updated_at = ? WHERE thing_id = ?",
		types.StatusArchived, now, now, id)
	if err != nil {
		return types.NewThingUpdateFailed(id, "archiving thing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.NewThingUpdateFailed(id, "archiving thing", err)
	}
	if n == 0 {
		return types.NewThingNotFound(id)
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
