// Package sqlstore implements state.RawStore on top of database/sql. The
// statements use "?" placeholders and an ON CONFLICT upsert, which SQLite
// accepts as is.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/goliatone/go-params/pkg/state"
)

// DefaultTable is the table used when WithTable is not given.
const DefaultTable = "params_records"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store persists one row per Ref identifier. A NULL params column is the
// absent document.
type Store struct {
	db    *sql.DB
	table string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

var _ state.RawStore = (*Store)(nil)

// New wraps db. The table name is validated because it is interpolated into
// statements.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: db is required")
	}
	s := &Store{db: db, table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if !tableName.MatchString(s.table) {
		return nil, fmt.Errorf("sqlstore: invalid table name %q", s.table)
	}
	return s, nil
}

// Migrate creates the table when it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	identifier TEXT PRIMARY KEY,
	params TEXT,
	snapshot_id TEXT NOT NULL,
	etag TEXT NOT NULL,
	extra TEXT,
	updated_at INTEGER NOT NULL
)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// Load implements state.RawStore.
func (s *Store) Load(ctx context.Context, ref state.Ref) (string, state.Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", state.Meta{}, false, err
	}

	var (
		raw       sql.NullString
		extra     sql.NullString
		meta      state.Meta
		updatedAt int64
	)
	query := fmt.Sprintf(`SELECT params, snapshot_id, etag, extra, updated_at FROM %s WHERE identifier = ?`, s.table)
	err = s.db.QueryRowContext(ctx, query, key).Scan(&raw, &meta.SnapshotID, &meta.ETag, &extra, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", state.Meta{}, false, nil
	}
	if err != nil {
		return "", state.Meta{}, false, fmt.Errorf("sqlstore: load %s: %w", key, err)
	}
	meta.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &meta.Extra); err != nil {
			return "", state.Meta{}, false, fmt.Errorf("sqlstore: decode extra for %s: %w", key, err)
		}
	}
	return raw.String, meta, true, nil
}

// Save implements state.RawStore. The ETag check and the write run in one
// transaction.
func (s *Store) Save(ctx context.Context, ref state.Ref, raw string, meta state.Meta) (state.Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return state.Meta{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return state.Meta{}, fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if meta.ETag != "" {
		var current string
		query := fmt.Sprintf(`SELECT etag FROM %s WHERE identifier = ?`, s.table)
		err := tx.QueryRowContext(ctx, query, key).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return state.Meta{}, fmt.Errorf("sqlstore: read etag %s: %w", key, err)
		case current != meta.ETag:
			return state.Meta{}, fmt.Errorf("%w: expected %q, got %q", state.ErrETagMismatch, meta.ETag, current)
		}
	}

	saved := meta
	saved.SnapshotID = uuid.NewString()
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = s.now().UTC()

	var extra sql.NullString
	if len(meta.Extra) > 0 {
		encoded, err := json.Marshal(meta.Extra)
		if err != nil {
			return state.Meta{}, fmt.Errorf("sqlstore: encode extra: %w", err)
		}
		extra = sql.NullString{String: string(encoded), Valid: true}
	}
	params := sql.NullString{String: raw, Valid: raw != ""}

	stmt := fmt.Sprintf(`INSERT INTO %s (identifier, params, snapshot_id, etag, extra, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(identifier) DO UPDATE SET
	params = excluded.params,
	snapshot_id = excluded.snapshot_id,
	etag = excluded.etag,
	extra = excluded.extra,
	updated_at = excluded.updated_at`, s.table)
	if _, err := tx.ExecContext(ctx, stmt, key, params, saved.SnapshotID, saved.ETag, extra, saved.UpdatedAt.UnixNano()); err != nil {
		return state.Meta{}, fmt.Errorf("sqlstore: save %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return state.Meta{}, fmt.Errorf("sqlstore: commit: %w", err)
	}
	return saved, nil
}

// Delete removes the row stored for ref.
func (s *Store) Delete(ctx context.Context, ref state.Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE identifier = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt, key); err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", key, err)
	}
	return nil
}
