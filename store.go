package params

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-params/internal/hydrate"
	"github.com/goliatone/go-params/merge"
)

// Load materializes the tree from the adapter if that has not happened yet.
// A document that cannot be decoded yields an empty tree; only adapter
// errors are returned, and they leave the store unmaterialized so the next
// call retries.
func (s *Store) Load() error {
	if s.loaded {
		return nil
	}
	raw := ""
	if s.cfg.adapter != nil {
		var err error
		raw, err = s.cfg.adapter.ReadRaw()
		if err != nil {
			s.logger().Log(LogEvent{Op: "read", Source: s.cfg.source, Err: err})
			return fmt.Errorf("params: read raw: %w", err)
		}
	}
	s.materialize(raw)
	return nil
}

// Loaded reports whether the tree has been materialized.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Invalidate drops the materialized tree so the next access reads from the
// adapter again. Host records call it when they are re-populated.
func (s *Store) Invalidate() {
	s.loaded = false
	s.tree = nil
	s.changes = nil
}

func (s *Store) materialize(raw string) {
	s.loaded = true
	s.tree = map[string]any{}
	if raw == "" {
		return
	}
	decoder := hydrate.NewDecoder(s.cfg.decoderOpts...)
	tree, err := decoder.Decode(hydrate.Context{Source: s.cfg.source}, []byte(raw))
	if err != nil {
		s.logger().Log(LogEvent{Op: "decode", Source: s.cfg.source, Err: err})
		return
	}
	s.tree = tree
}

// root returns the materialized tree, or nil when the adapter failed. A nil
// map reads as empty.
func (s *Store) root() map[string]any {
	if err := s.Load(); err != nil {
		return nil
	}
	return s.tree
}

// GetParam returns the value stored under key. An exact top level key wins
// over dot path descent, so a key literally named "a.b" shadows a.b. When
// nothing is found def is returned. Containers are returned as copies.
func (s *Store) GetParam(key string, def any) any {
	root := s.root()
	if value, ok := root[key]; ok {
		return merge.Clone(value)
	}
	value, ok := lookup(root, splitPath(key))
	if !ok {
		return def
	}
	return merge.Clone(value)
}

// HasParam reports whether key is a top level key. Dots are not
// interpreted.
func (s *Store) HasParam(key string) bool {
	_, ok := s.root()[key]
	return ok
}

// GetParams returns a copy of the whole tree.
func (s *Store) GetParams() map[string]any {
	return merge.CloneMap(s.root())
}

// SetParam stores value at the dot path key, creating intermediate mappings
// and replacing any non-mapping value found on the way. With Merge or
// MergeRecursive a mapping value is merged into an existing mapping slot;
// every other combination overwrites.
func (s *Store) SetParam(key string, value any, mode MergeMode) error {
	if err := s.Load(); err != nil {
		return err
	}
	s.set(key, merge.Normalize(value), mode)
	return s.flush()
}

// SetParamMap applies SetParam for every path/value pair in sorted path
// order, then writes the document once. Pairs are independent; a later
// path may overwrite what an earlier one created.
func (s *Store) SetParamMap(pairs map[string]any, mode MergeMode) error {
	if err := s.Load(); err != nil {
		return err
	}
	for _, key := range sortedKeys(pairs) {
		s.set(key, merge.Normalize(pairs[key]), mode)
	}
	return s.flush()
}

func (s *Store) set(key string, value any, mode MergeMode) {
	parent, last := walk(s.tree, splitPath(key))
	old, existed := parent[last]
	next := value
	switch mode {
	case Merge:
		if existed {
			next = merge.Replace(old, value)
		}
	case MergeRecursive:
		if existed {
			next = merge.ReplaceRecursive(old, value)
		}
	}
	parent[last] = next
	s.record(Change{Op: OpSet, Path: key, Mode: mode, Old: old, New: next})
}

// AddParam appends value to the sequence at the dot path key, walking the
// path like SetParam. A missing or scalar slot becomes a new sequence; a
// mapping slot receives value under its next integer key.
func (s *Store) AddParam(key string, value any) error {
	if err := s.Load(); err != nil {
		return err
	}
	value = merge.Normalize(value)
	parent, last := walk(s.tree, splitPath(key))
	old := parent[last]
	switch current := old.(type) {
	case []any:
		parent[last] = append(current, value)
	case map[string]any:
		current[nextIndexKey(current)] = value
	default:
		parent[last] = []any{value}
	}
	s.record(Change{Op: OpAdd, Path: key, Old: nil, New: value})
	return s.flush()
}

// SetParams replaces or merges the whole tree. params must be a mapping or a
// sequence (treated as a mapping keyed by index); anything else leaves the
// tree untouched. The document is written either way.
func (s *Store) SetParams(params any, mode MergeMode) error {
	if err := s.Load(); err != nil {
		return err
	}
	incoming, ok := hydrate.AsRoot(merge.Normalize(params))
	if ok {
		old := s.tree
		switch mode {
		case Merge:
			s.tree = merge.Replace(s.tree, incoming).(map[string]any)
		case MergeRecursive:
			s.tree = merge.ReplaceRecursive(s.tree, incoming).(map[string]any)
		default:
			s.tree = incoming
		}
		op := OpReplace
		if mode != Replace {
			op = OpMerge
		}
		s.record(Change{Op: op, Mode: mode, Old: old, New: incoming})
	}
	return s.flush()
}

// UnsetParam removes the top level key. Dots are not interpreted. The
// document is only rewritten when something was removed.
func (s *Store) UnsetParam(key string) error {
	if err := s.Load(); err != nil {
		return err
	}
	old, ok := s.tree[key]
	if !ok {
		return nil
	}
	delete(s.tree, key)
	s.record(Change{Op: OpUnset, Path: key, Old: old})
	return s.flush()
}

// UnsetParams removes each listed top level key. Called without keys it
// clears the tree. The document is always rewritten.
func (s *Store) UnsetParams(keys ...string) error {
	if err := s.Load(); err != nil {
		return err
	}
	if len(keys) == 0 {
		old := s.tree
		s.tree = map[string]any{}
		s.record(Change{Op: OpClear, Old: old})
		return s.flush()
	}
	for _, key := range keys {
		old, ok := s.tree[key]
		if !ok {
			continue
		}
		delete(s.tree, key)
		s.record(Change{Op: OpUnset, Path: key, Old: old})
	}
	return s.flush()
}

// UnsetParamList is UnsetParams for a comma separated list such as
// " a , b ". Entries are trimmed; an empty list clears the tree.
func (s *Store) UnsetParamList(list string) error {
	if list == "" {
		return s.UnsetParams()
	}
	parts := strings.Split(list, ",")
	keys := make([]string, len(parts))
	for i, part := range parts {
		keys[i] = strings.TrimSpace(part)
	}
	return s.UnsetParams(keys...)
}

// JSONString encodes the tree. An empty tree reports ok=false rather than
// "{}" so callers can store NULL. Unicode and HTML characters are written
// unescaped; pretty output is indented.
func (s *Store) JSONString(pretty bool) (raw string, ok bool, err error) {
	root := s.root()
	if len(root) == 0 {
		return "", false, nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if pretty {
		encoder.SetIndent("", s.cfg.indent)
	}
	if err := encoder.Encode(root); err != nil {
		return "", false, fmt.Errorf("params: encode: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), true, nil
}

// String returns the compact document, or "" for an empty tree.
func (s *Store) String() string {
	raw, _, _ := s.JSONString(false)
	return raw
}

// Sync writes the current document to the adapter. Hosts call it right
// before persisting the record.
func (s *Store) Sync() error {
	if err := s.Load(); err != nil {
		return err
	}
	return s.flush()
}

func (s *Store) flush() error {
	raw, _, err := s.JSONString(false)
	if err != nil {
		s.logger().Log(LogEvent{Op: "encode", Source: s.cfg.source, Err: err})
		return err
	}
	if s.cfg.adapter == nil {
		return nil
	}
	if err := s.cfg.adapter.WriteRaw(raw); err != nil {
		s.logger().Log(LogEvent{Op: "write", Source: s.cfg.source, Err: err})
		return fmt.Errorf("params: write raw: %w", err)
	}
	return nil
}

func (s *Store) record(change Change) {
	if !s.cfg.journal {
		return
	}
	change.Old = merge.Clone(change.Old)
	change.New = merge.Clone(change.New)
	change.At = s.cfg.now()
	s.changes = append(s.changes, change)
}

// Changes returns the mutations recorded since the last call and clears
// the journal. It is empty unless the store was built WithChangeJournal.
func (s *Store) Changes() []Change {
	out := s.changes
	s.changes = nil
	return out
}
