package params

import (
	"time"

	"github.com/goliatone/go-params/internal/hydrate"
)

// New constructs a Store. Without WithAdapter the store starts empty and
// keeps its serialized form to itself.
func New(opts ...Option) *Store {
	return &Store{cfg: applyOptions(opts)}
}

// NewFromRaw constructs a Store materialized from raw. Malformed input
// yields an empty tree, as it would when read through an adapter.
func NewFromRaw(raw string, opts ...Option) *Store {
	s := New(opts...)
	s.materialize(raw)
	return s
}

// WithAdapter binds the store to the host record that persists it.
func WithAdapter(adapter Adapter) Option {
	return func(cfg *storeConfig) {
		cfg.adapter = adapter
	}
}

// WithSource labels the store in log events and decode errors, typically
// with the host record identifier.
func WithSource(source string) Option {
	return func(cfg *storeConfig) {
		cfg.source = source
	}
}

// WithUseNumber decodes every number as json.Number. Without it numbers
// decode as float64, or int64 (json.Number past int64) when float64 would
// lose precision.
func WithUseNumber() Option {
	return func(cfg *storeConfig) {
		cfg.decoderOpts = append(cfg.decoderOpts, hydrate.WithUseNumber())
	}
}

// WithIndent sets the indentation used by pretty printed output. The default
// is four spaces.
func WithIndent(indent string) Option {
	return func(cfg *storeConfig) {
		cfg.indent = indent
	}
}

// WithChangeJournal records every mutation so it can be drained with
// Store.Changes.
func WithChangeJournal() Option {
	return func(cfg *storeConfig) {
		cfg.journal = true
	}
}

// WithClock overrides the time source used to stamp changes.
func WithClock(now func() time.Time) Option {
	return func(cfg *storeConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithEvaluator configures the evaluator used by Store.Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *storeConfig) {
		cfg.programCache = cache
	}
}
