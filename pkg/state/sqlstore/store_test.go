package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/goliatone/go-params/pkg/state/sqlstore"
)

func openStore(t *testing.T, opts ...sqlstore.Option) (*sqlstore.Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "params.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := sqlstore.New(db, opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store, db
}

func TestStoreRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	store, _ := openStore(t, sqlstore.WithClock(func() time.Time { return at }))
	ctx := context.Background()
	ref := state.Ref{Domain: "prefs", Scope: state.UserScope("u1")}

	if _, _, ok, err := store.Load(ctx, ref); ok || err != nil {
		t.Fatalf("expected missing row, ok=%t err=%v", ok, err)
	}

	first, err := store.Save(ctx, ref, `{"a":1}`, state.Meta{Extra: map[string]string{"by": "test"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, meta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if raw != `{"a":1}` || meta.ETag != first.ETag || meta.SnapshotID != first.SnapshotID {
		t.Fatalf("unexpected row raw=%q meta=%+v", raw, meta)
	}
	if !meta.UpdatedAt.Equal(at) || meta.Extra["by"] != "test" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	second, err := store.Save(ctx, ref, "", meta)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("expected etag rotation")
	}
	raw, _, ok, _ = store.Load(ctx, ref)
	if !ok || raw != "" {
		t.Fatalf("expected NULL params, got %q ok=%t", raw, ok)
	}

	if _, err := store.Save(ctx, ref, `{}`, first); !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected stale etag rejection, got %v", err)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, _ := store.Load(ctx, ref); ok {
		t.Fatalf("expected row to be deleted")
	}
}

func TestStoreStoresNullColumn(t *testing.T) {
	store, db := openStore(t, sqlstore.WithTable("custom_params"))
	ctx := context.Background()
	ref := state.Ref{Domain: "prefs", Scope: state.SystemScope()}

	if _, err := store.Save(ctx, ref, "", state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var isNull bool
	if err := db.QueryRow(`SELECT params IS NULL FROM custom_params WHERE identifier = ?`, "system/prefs").Scan(&isNull); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !isNull {
		t.Fatalf("expected empty document stored as NULL")
	}
}

func TestStoreWithResolver(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	resolver := state.Resolver{Store: store}
	ref := state.Ref{Domain: "prefs", Scope: state.TenantScope("acme")}

	_, meta, err := resolver.Mutate(ctx, ref, state.Meta{}, func(p *params.Store) error {
		return p.SetParam("limits.seats", 25, params.Replace)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	_, _, err = resolver.Mutate(ctx, ref, meta, func(p *params.Store) error {
		return p.SetParam("limits.storage", "10GB", params.Replace)
	})
	if err != nil {
		t.Fatalf("second mutate: %v", err)
	}

	resolved, err := resolver.Resolve(ctx, "prefs", state.TenantScope("acme"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.GetParam("limits.seats", nil) != float64(25) || resolved.GetParam("limits.storage", nil) != "10GB" {
		t.Fatalf("unexpected params %v", resolved.GetParams())
	}

	if _, _, err := resolver.Mutate(ctx, ref, meta, func(*params.Store) error { return nil }); !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected stale etag rejection, got %v", err)
	}
}

func TestNewValidatesInput(t *testing.T) {
	if _, err := sqlstore.New(nil); err == nil {
		t.Fatalf("expected nil db error")
	}
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := sqlstore.New(db, sqlstore.WithTable("params; DROP TABLE x")); err == nil {
		t.Fatalf("expected invalid table name error")
	}
}
