package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

const groupColumns = "group_id, slug, name, type, parent_group_id, settings, status, created_at, updated_at"

func hydrateGroup(row rowScanner) (*types.Group, error) {
	var g types.Group
	var settings, createdAt, updatedAt string
	err := row.Scan(&g.GroupID, &g.Slug, &g.Name, &g.Type, &g.ParentGroupID,
		&settings, &g.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(settings), &g.Settings)
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return &g, nil
}

// hydrateUsage loads the usage counters for one group.
func (s *Store) hydrateUsage(ctx context.Context, g *types.Group) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT resource, used FROM group_usage WHERE group_id = ?", g.GroupID)
	if err != nil {
		return err
	}
	defer rows.Close()

	g.Usage = make(map[string]int)
	for rows.Next() {
		var resource string
		var used int
		if err := rows.Scan(&resource, &used); err != nil {
			return err
		}
		g.Usage[resource] = used
	}
	return rows.Err()
}

// GetGroup retrieves a group by ID, usage counters included.
func (s *Store) GetGroup(ctx context.Context, id string) (*types.Group, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE group_id = ?", id)
	g, err := hydrateGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewGroupNotFound(id)
		}
		return nil, types.NewQueryFailed("getting group "+id, err)
	}
	if err := s.hydrateUsage(ctx, g); err != nil {
		return nil, types.NewQueryFailed("hydrating usage for group "+id, err)
	}
	return g, nil
}

// GetGroupBySlug retrieves a group by its unique slug.
func (s *Store) GetGroupBySlug(ctx context.Context, slug string) (*types.Group, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE slug = ?", slug)
	g, err := hydrateGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewGroupNotFound(slug)
		}
		return nil, types.NewQueryFailed("getting group by slug "+slug, err)
	}
	if err := s.hydrateUsage(ctx, g); err != nil {
		return nil, types.NewQueryFailed("hydrating usage for group "+g.GroupID, err)
	}
	return g, nil
}

// ListGroups returns groups matching the filter, created_at descending.
// Usage counters are not hydrated on list.
func (s *Store) ListGroups(ctx context.Context, filter types.GroupFilter) ([]*types.Group, error) {
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
	if filter.ParentGroupID != "" {
		conds = append(conds, "parent_group_id = ?")
		args = append(args, filter.ParentGroupID)
	}

	query := "SELECT " + groupColumns + " FROM groups"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, group_id DESC"
	query += limitClause(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewQueryFailed("listing groups", err)
	}
	defer rows.Close()

	results := make([]*types.Group, 0)
	for rows.Next() {
		g, err := hydrateGroup(rows)
		if err != nil {
			return nil, types.NewQueryFailed("scanning group row", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewQueryFailed("listing groups", err)
	}
	return results, nil
}

// CreateGroup persists a new group. Slugs are unique per backend; a
// duplicate slug fails creation.
func (s *Store) CreateGroup(ctx context.Context, input *types.Group) (*types.Group, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	g := *input
	g.GroupID = s.newID()
	if g.Status == "" {
		g.Status = types.GroupStatusActive
	}
	now := s.now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Usage == nil {
		g.Usage = make(map[string]int)
	}

	settings, err := encodeJSON(g.Settings)
	if err != nil {
		return nil, types.NewGroupCreateFailed("encoding settings", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO groups ("+groupColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		g.GroupID, g.Slug, g.Name, g.Type, g.ParentGroupID, settings,
		g.Status, formatTime(now), formatTime(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, types.NewGroupCreateFailed("slug already in use: "+g.Slug, err)
		}
		return nil, types.NewGroupCreateFailed("persisting group", err)
	}
	return &g, nil
}

// UpdateGroup applies a partial update.
func (s *Store) UpdateGroup(ctx context.Context, id string, patch types.GroupPatch) (*types.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, types.NewQueryFailed("beginning transaction", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups WHERE group_id = ?", id)
	g, err := hydrateGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewGroupNotFound(id)
		}
		return nil, types.NewQueryFailed("reading group "+id, err)
	}

	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Status != nil {
		g.Status = *patch.Status
	}
	if patch.ParentGroupID != nil {
		g.ParentGroupID = *patch.ParentGroupID
	}
	if patch.Settings != nil {
		g.Settings = *patch.Settings
	}
	g.UpdatedAt = s.now().UTC()

	settings, err := encodeJSON(g.Settings)
	if err != nil {
		return nil, types.NewQueryFailed("encoding settings", err)
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE groups SET name = ?, status = ?, parent_group_id = ?, settings = ?, updated_at = ? WHERE group_id = ?",
		g.Name, g.Status, g.ParentGroupID, settings, formatTime(g.UpdatedAt), id)
	if err != nil {
		return nil, types.NewQueryFailed("persisting group "+id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, types.NewQueryFailed("committing group "+id, err)
	}
	if err := s.hydrateUsage(ctx, g); err != nil {
		return nil, types.NewQueryFailed("hydrating usage for group "+id, err)
	}
	return g, nil
}

// DeleteGroup archives a group. Like things, groups are never physically
// removed.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET status = ?, updated_at = ? WHERE group_id = ?",
		types.GroupStatusArchived, formatTime(s.now().UTC()), id)
	if err != nil {
		return types.NewQueryFailed("archiving group "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.NewQueryFailed("archiving group "+id, err)
	}
	if n == 0 {
		return types.NewGroupNotFound(id)
	}
	return nil
}

// UpdateUsage applies an atomic delta to one resource counter and returns
// the new value. Counters never go below zero. The read-modify-write runs
// as a single UPSERT so concurrent deltas serialize inside SQLite.
func (s *Store) UpdateUsage(ctx context.Context, groupID, resource string, delta int) (int, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM groups WHERE group_id = ?", groupID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, types.NewGroupNotFound(groupID)
	} else if err != nil {
		return 0, types.NewQueryFailed("checking group existence", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO group_usage (group_id, resource, used) VALUES (?, ?, MAX(0, ?))
		 ON CONFLICT(group_id, resource) DO UPDATE SET used = MAX(0, used + ?)`,
		groupID, resource, delta, delta)
	if err != nil {
		return 0, types.NewQueryFailed("updating usage counter", err)
	}

	var used int
	err = s.db.QueryRowContext(ctx,
		"SELECT used FROM group_usage WHERE group_id = ? AND resource = ?",
		groupID, resource).Scan(&used)
	if err != nil {
		return 0, types.NewQueryFailed("reading usage counter", err)
	}
	return used, nil
}
