package state

import (
	"context"
	"fmt"
	"sort"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/merge"
	"github.com/goliatone/go-params/pkg/activity"
)

// Resolver runs the record lifecycle against a RawStore.
type Resolver struct {
	Store RawStore
	// Options are applied to every Store the resolver builds.
	Options []params.Option
	// Emitter receives one event per recorded change after a successful
	// Persist. Optional.
	Emitter *activity.Emitter
}

// Mutator changes the params of one record.
type Mutator func(*params.Store) error

// Open loads the record for ref. A missing document yields an empty record
// with zero metadata.
func (r Resolver) Open(ctx context.Context, ref Ref) (*Record, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	raw, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	rec := NewRecord(ref, r.Options...)
	if ok {
		rec.OnAfterLoad(raw, meta)
	}
	return rec, nil
}

// Persist serializes the record, saves it with the record's ETag and
// emits the changes recorded since the last persist.
func (r Resolver) Persist(ctx context.Context, rec *Record) (Meta, error) {
	return r.persist(ctx, rec, rec.Meta())
}

func (r Resolver) persist(ctx context.Context, rec *Record, meta Meta) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	if rec == nil {
		return Meta{}, fmt.Errorf("state: record is required")
	}
	raw, err := rec.OnBeforePersist()
	if err != nil {
		return Meta{}, err
	}
	ref := rec.Ref()
	saved, err := r.Store.Save(ctx, ref, raw, meta)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	rec.onAfterPersist(saved)

	changes := rec.Params().Changes()
	if !r.Emitter.Enabled() {
		return saved, nil
	}
	if err := r.Emitter.EmitAll(ctx, changeEvents(rec, changes)); err != nil {
		return saved, fmt.Errorf("state: emit activity: %w", err)
	}
	return saved, nil
}

// Mutate loads the record for ref, checks meta.ETag against the stored one,
// applies fn and persists the result. Nothing is saved when fn fails.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (*Record, Meta, error) {
	if ref.Domain == "" {
		return nil, Meta{}, fmt.Errorf("state: domain is required")
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	rec, err := r.Open(ctx, ref)
	if err != nil {
		return nil, Meta{}, err
	}
	loaded := rec.Meta()
	if meta.ETag != "" && loaded.ETag != "" && meta.ETag != loaded.ETag {
		return nil, loaded, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loaded.ETag)
	}
	if err := fn(rec.Params()); err != nil {
		return nil, loaded, err
	}

	saved, err := r.persist(ctx, rec, mergeMeta(loaded, meta))
	if err != nil {
		return rec, loaded, err
	}
	return rec, saved, nil
}

// Resolve merges the documents stored for domain under each scope. Higher
// priority scopes win key by key, recursively. Scopes without a document
// are skipped; ErrNoLayers is returned when none has one.
func (r Resolver) Resolve(ctx context.Context, domain string, scopes ...Scope) (*params.Store, error) {
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}
	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w for domain %q", ErrNoLayers, domain)
	}
	return r.detached(merge.Layers(layers...))
}

// ResolveWithDefaults is Resolve with defaults as the weakest layer.
func (r Resolver) ResolveWithDefaults(ctx context.Context, domain string, defaults map[string]any, scopes ...Scope) (*params.Store, error) {
	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	if normalized, ok := merge.Normalize(defaults).(map[string]any); ok {
		layers = append(layers, normalized)
	}
	return r.detached(merge.Layers(layers...))
}

func (r Resolver) loadLayers(ctx context.Context, domain string, scopes []Scope) ([]map[string]any, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("state: domain is required")
	}
	ordered, err := orderScopes(scopes)
	if err != nil {
		return nil, err
	}

	layers := make([]map[string]any, 0, len(ordered))
	for _, scope := range ordered {
		raw, _, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
		}
		if !ok || raw == "" {
			continue
		}
		layers = append(layers, params.NewFromRaw(raw, r.Options...).GetParams())
	}
	return layers, nil
}

// detached builds a store that is not bound to any record.
func (r Resolver) detached(tree map[string]any) (*params.Store, error) {
	opts := append(append([]params.Option{}, r.Options...), params.WithAdapter(nil))
	store := params.New(opts...)
	if err := store.SetParams(tree, params.Replace); err != nil {
		return nil, err
	}
	return store, nil
}

// orderScopes sorts scopes strongest first and rejects duplicate names.
func orderScopes(scopes []Scope) ([]Scope, error) {
	seen := make(map[string]struct{}, len(scopes))
	ordered := make([]Scope, 0, len(scopes))
	for _, scope := range scopes {
		if scope.Name == "" {
			return nil, fmt.Errorf("state: scope name is required")
		}
		if _, ok := seen[scope.Name]; ok {
			return nil, fmt.Errorf("state: duplicate scope %q", scope.Name)
		}
		seen[scope.Name] = struct{}{}
		ordered = append(ordered, scope)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered, nil
}
