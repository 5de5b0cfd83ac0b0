package state

import (
	params "github.com/goliatone/go-params"
)

// Record is the host side of a params column: it owns the raw value and the
// Store materialized from it. A Record is not safe for concurrent use.
type Record struct {
	ref    Ref
	raw    string
	meta   Meta
	dirty  bool
	params *params.Store
}

var _ params.Adapter = (*Record)(nil)

// NewRecord builds an empty record for ref. The store is labelled with the
// ref identifier, keeps a change journal and writes back to the record.
func NewRecord(ref Ref, opts ...params.Option) *Record {
	r := &Record{ref: ref}
	source, err := ref.Identifier()
	if err != nil {
		source = ref.Domain
	}
	storeOpts := make([]params.Option, 0, len(opts)+3)
	storeOpts = append(storeOpts, params.WithSource(source))
	storeOpts = append(storeOpts, opts...)
	storeOpts = append(storeOpts, params.WithChangeJournal(), params.WithAdapter(r))
	r.params = params.New(storeOpts...)
	return r
}

// Ref returns the record reference.
func (r *Record) Ref() Ref { return r.ref }

// Meta returns the metadata of the last loaded or persisted snapshot.
func (r *Record) Meta() Meta { return cloneMeta(r.meta) }

// Params is the accessor hosts use instead of touching the raw column.
func (r *Record) Params() *params.Store { return r.params }

// Raw returns the current raw column value.
func (r *Record) Raw() string { return r.raw }

// Dirty reports whether the raw value changed since the last load or
// persist.
func (r *Record) Dirty() bool { return r.dirty }

// ReadRaw implements params.Adapter.
func (r *Record) ReadRaw() (string, error) {
	return r.raw, nil
}

// WriteRaw implements params.Adapter.
func (r *Record) WriteRaw(raw string) error {
	if raw != r.raw {
		r.dirty = true
	}
	r.raw = raw
	return nil
}

// OnAfterLoad replaces the raw value with what the host just read and drops
// the materialized tree; it is rebuilt on next access.
func (r *Record) OnAfterLoad(raw string, meta Meta) {
	r.raw = raw
	r.meta = cloneMeta(meta)
	r.dirty = false
	r.params.Invalidate()
}

// OnBeforePersist re-serializes the tree and returns the raw value to write.
func (r *Record) OnBeforePersist() (string, error) {
	if err := r.params.Sync(); err != nil {
		return "", err
	}
	return r.raw, nil
}

func (r *Record) onAfterPersist(meta Meta) {
	r.meta = cloneMeta(meta)
	r.dirty = false
}
