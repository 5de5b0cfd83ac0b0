package params

import (
	"time"

	"github.com/goliatone/go-params/internal/hydrate"
)

// Adapter is the host record collaborator that owns the persisted params
// column. An empty string stands for an absent (NULL) value in both
// directions.
type Adapter interface {
	// ReadRaw returns the persisted document. It is consulted once, on first
	// materialization.
	ReadRaw() (string, error)
	// WriteRaw receives the re-serialized document after every mutation.
	WriteRaw(raw string) error
}

// MergeMode selects how a written value combines with the value already
// stored at the same location.
type MergeMode int

const (
	// Replace overwrites the slot with the new value.
	Replace MergeMode = iota
	// Merge overwrites matching top level keys and keeps the rest.
	Merge
	// MergeRecursive applies Merge at every level where both sides are
	// containers.
	MergeRecursive
)

func (m MergeMode) String() string {
	switch m {
	case Merge:
		return "merge"
	case MergeRecursive:
		return "merge_recursive"
	default:
		return "replace"
	}
}

// Store is a lazily materialized tree of JSON values addressed by dot
// paths. A Store is owned by one host record and is not safe for concurrent
// use.
type Store struct {
	cfg     storeConfig
	tree    map[string]any
	loaded  bool
	changes []Change
}

// Op names a mutation recorded in the change journal.
type Op string

const (
	OpSet      Op = "set"
	OpAdd      Op = "add"
	OpUnset    Op = "unset"
	OpClear    Op = "clear"
	OpReplace  Op = "replace"
	OpMerge    Op = "merge"
	OpPatch    Op = "patch"
	OpPatchAll Op = "merge_patch"
)

// Change describes one mutation applied to the tree. Old is nil when the
// location did not exist before.
type Change struct {
	Op   Op
	Path string
	Mode MergeMode
	Old  any
	New  any
	At   time.Time
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	adapter      Adapter
	source       string
	logger       Logger
	indent       string
	decoderOpts  []hydrate.DecoderOption
	journal      bool
	now          func() time.Time
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		indent: "    ",
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (s *Store) logger() Logger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopLogger{}
}

func (s *Store) programCache() ProgramCache {
	return s.cfg.programCache
}

func (s *Store) functionRegistry() *FunctionRegistry {
	return s.cfg.functions
}
