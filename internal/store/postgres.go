// File: internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts pgxpool.Pool so tests can substitute pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists bindings records as JSONB rows. The version column is
// duplicated out of the record for the optimistic write guard.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.BindingStore = (*PostgresStore)(nil)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS page_bindings (
    id          TEXT PRIMARY KEY,
    url_pattern TEXT NOT NULL,
    version     INTEGER NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL,
    record      JSONB NOT NULL
);`

// NewPostgresStore verifies the connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return nil, fmt.Errorf("failed to ensure page_bindings schema: %w", err)
	}
	return &PostgresStore{pool: pool, log: logger.Named("store.postgres")}, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id string) (*schemas.PageBindings, error) {
	row := s.pool.QueryRow(ctx, `SELECT record FROM page_bindings WHERE id = $1`, id)
	return scanRecord(row)
}

// Put upserts the record. The WHERE guard on the conflict update enforces the
// optimistic version check: a write that does not advance the version touches
// zero rows and surfaces as ErrVersionConflict.
func (s *PostgresStore) Put(ctx context.Context, record *schemas.PageBindings) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal bindings record: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
        INSERT INTO page_bindings (id, url_pattern, version, updated_at, record)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            url_pattern = EXCLUDED.url_pattern,
            version     = EXCLUDED.version,
            updated_at  = EXCLUDED.updated_at,
            record      = EXCLUDED.record
        WHERE page_bindings.version < EXCLUDED.version;`,
		record.ID, record.URLPattern, record.Version, record.UpdatedAt.UTC(), payload)
	if err != nil {
		return fmt.Errorf("failed to upsert bindings record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.log.Warn("Rejecting stale bindings write",
			zap.String("id", record.ID),
			zap.Int("incoming_version", record.Version))
		return ErrVersionConflict
	}
	return nil
}

// Query finds the record whose stored URL pattern is a substring of the page
// hostname, preferring the freshest match.
func (s *PostgresStore) Query(ctx context.Context, hostname string) (*schemas.PageBindings, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT record FROM page_bindings
        WHERE position(lower(url_pattern) IN lower($1)) > 0
        ORDER BY updated_at DESC
        LIMIT 1;`, hostname)
	return scanRecord(row)
}

// List returns every stored record, freshest first.
func (s *PostgresStore) List(ctx context.Context) ([]*schemas.PageBindings, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM page_bindings ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	var out []*schemas.PageBindings
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan bindings row: %w", err)
		}
		var record schemas.PageBindings
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bindings record: %w", err)
		}
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bindings rows: %w", err)
	}
	return out, nil
}

// Clear removes all records.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM page_bindings`); err != nil {
		return fmt.Errorf("failed to clear bindings: %w", err)
	}
	return nil
}

// ClearPattern removes records whose URL pattern overlaps the given pattern.
func (s *PostgresStore) ClearPattern(ctx context.Context, pattern string) error {
	_, err := s.pool.Exec(ctx, `
        DELETE FROM page_bindings
        WHERE position(lower(url_pattern) IN lower($1)) > 0
           OR position(lower($1) IN lower(url_pattern)) > 0;`, pattern)
	if err != nil {
		return fmt.Errorf("failed to clear bindings for pattern %q: %w", pattern, err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*schemas.PageBindings, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan bindings row: %w", err)
	}
	var record schemas.PageBindings
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bindings record: %w", err)
	}
	return &record, nil
}
