// Package sqlite implements the storage contract on a single SQLite
// database file. One Store owns one database; the composite router composes
// several of them into a platform-wide view.
package sqlite

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Compile-time interface check: Store must implement Provider.
var _ types.Provider = (*Store)(nil)

// timeFormat is RFC 3339 with a fixed-width fractional second so that
// lexicographic ordering on the stored string matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed provider. All timestamps are stored as UTC
// RFC 3339 strings and all identifiers carry the store's configured prefix.
type Store struct {
	db       *sql.DB
	idPrefix string

	// now is swappable in tests.
	now func() time.Time

	requireVerified bool
}

// Open creates dataDir if needed, opens (or creates) the database file
// inside it, and applies the schema. Reopening an existing database
// preserves its contents.
func Open(dataDir, idPrefix string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ontic.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	// modernc.org/sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY under concurrent access.
	db.SetMaxOpenConns(1)

	return &Store{
		db:       db,
		idPrefix: idPrefix,
		now:      time.Now,
	}, nil
}

// Close releases the database handle. Close is idempotent.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// RequireVerifiedEmail makes Login reject users who have not verified
// their email address.
func (s *Store) RequireVerifiedEmail(on bool) {
	s.requireVerified = on
}

// newID generates a prefixed UUID v7, falling back to v4 when the clock
// source fails.
func (s *Store) newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return s.idPrefix + uuid.New().String()
	}
	return s.idPrefix + id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		// Tolerate plain RFC 3339 rows written by hand or older builds.
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}
	return string(raw), nil
}

func decodeMap(raw string) map[string]any {
	if raw == "" || raw == "{}" {
		return map[string]any{}
	}
	out := map[string]any{}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

// limitClause renders deterministic LIMIT/OFFSET suffixes. SQLite needs an
// explicit LIMIT before OFFSET, so an offset without a limit uses -1.
func limitClause(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	default:
		return ""
	}
}
