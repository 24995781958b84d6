package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

const connectionColumns = "connection_id, from_entity_id, to_entity_id, relationship_type, metadata, strength, valid_from, valid_until, group_id, created_at"

func hydrateConnection(row rowScanner) (*types.Connection, error) {
	var c types.Connection
	var meta, createdAt string
	var validFrom, validUntil sql.NullString
	err := row.Scan(&c.ConnectionID, &c.FromEntityID, &c.ToEntityID,
		&c.RelationshipType, &meta, &c.Strength, &validFrom, &validUntil,
		&c.GroupID, &createdAt)
	if err != nil {
		return nil, err
	}
	c.Metadata = decodeMap(meta)
	c.CreatedAt = parseTime(createdAt)
	if validFrom.Valid {
		t := parseTime(validFrom.String)
		c.ValidFrom = &t
	}
	if validUntil.Valid {
		t := parseTime(validUntil.String)
		c.ValidUntil = &t
	}
	return &c, nil
}

// GetConnection retrieves a connection by ID.
func (s *Store) GetConnection(ctx context.Context, id string) (*types.Connection, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+connectionColumns+" FROM connections WHERE connection_id = ?", id)
	c, err := hydrateConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewConnectionNotFound(id)
		}
		return nil, types.NewQueryFailed(fmt.Sprintf("getting connection %s", id), err)
	}
	return c, nil
}

// ListConnections returns connections matching the filter, created_at
// descending.
func (s *Store) ListConnections(ctx context.Context, filter types.ConnectionFilter) ([]*types.Connection, error) {
	var conds []string
	var args []any
	if filter.FromEntityID != "" {
		conds = append(conds, "from_entity_id = ?")
		args = append(args, filter.FromEntityID)
	}
	if filter.ToEntityID != "" {
		conds = append(conds, "to_entity_id = ?")
		args = append(args, filter.ToEntityID)
	}
	if filter.RelationshipType != "" {
		conds = append(conds, "relationship_type = ?")
		args = append(args, filter.RelationshipType)
	}

	query := "SELECT " + connectionColumns + " FROM connections"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, connection_id DESC"
	query += limitClause(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.NewQueryFailed("listing connections", err)
	}
	defer rows.Close()

	results := make([]*types.Connection, 0)
	for rows.Next() {
		c, err := hydrateConnection(rows)
		if err != nil {
			return nil, types.NewQueryFailed("scanning connection row", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewQueryFailed("listing connections", err)
	}
	return results, nil
}

// CreateConnection persists a new connection. Endpoint existence is a
// service-level check; the adapter validates shape only.
func (s *Store) CreateConnection(ctx context.Context, input *types.Connection) (*types.Connection, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c := *input
	c.ConnectionID = s.newID()
	c.CreatedAt = s.now().UTC()
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}

	meta, err := encodeJSON(c.Metadata)
	if err != nil {
		return nil, types.NewConnectionCreateFailed("encoding metadata", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO connections ("+connectionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ConnectionID, c.FromEntityID, c.ToEntityID, c.RelationshipType,
		meta, c.Strength, nullTime(c.ValidFrom), nullTime(c.ValidUntil),
		c.GroupID, formatTime(c.CreatedAt))
	if err != nil {
		return nil, types.NewConnectionCreateFailed("persisting connection", err)
	}
	return &c, nil
}

// DeleteConnection hard-deletes a connection.
func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM connections WHERE connection_id = ?", id)
	if err != nil {
		return types.NewQueryFailed(fmt.Sprintf("deleting connection %s", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.NewQueryFailed(fmt.Sprintf("deleting connection %s", id), err)
	}
	if n == 0 {
		return types.NewConnectionNotFound(id)
	}
	return nil
}
