package params

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/tidwall/gjson"

	"github.com/goliatone/go-params/internal/hydrate"
)

// ApplyPatch applies an RFC 6902 JSON Patch document to the tree. The tree
// is left untouched when the patch fails.
func (s *Store) ApplyPatch(patch []byte) error {
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return fmt.Errorf("params: decode patch: %w", err)
	}
	return s.patch(OpPatch, ops.Apply)
}

// ApplyMergePatch applies an RFC 7386 JSON Merge Patch document to the
// tree. Members set to null are removed.
func (s *Store) ApplyMergePatch(patch []byte) error {
	return s.patch(OpPatchAll, func(doc []byte) ([]byte, error) {
		return jsonpatch.MergePatch(doc, patch)
	})
}

func (s *Store) patch(op Op, apply func([]byte) ([]byte, error)) error {
	if err := s.Load(); err != nil {
		return err
	}
	doc, err := s.document()
	if err != nil {
		return err
	}
	patched, err := apply(doc)
	if err != nil {
		return fmt.Errorf("params: apply %s: %w", op, err)
	}
	tree, err := hydrate.NewDecoder(s.cfg.decoderOpts...).Decode(hydrate.Context{Source: s.cfg.source}, patched)
	if err != nil {
		return fmt.Errorf("params: apply %s: %w", op, err)
	}
	old := s.tree
	s.tree = tree
	s.record(Change{Op: op, Old: old, New: tree})
	return s.flush()
}

// Query resolves a gjson path (for example "servers.#.host" or
// "users.#(age>40).name") against the encoded tree.
func (s *Store) Query(path string) (any, bool) {
	doc, err := s.document()
	if err != nil {
		return nil, false
	}
	result := gjson.GetBytes(doc, path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// document returns the compact encoding, using "{}" for an empty tree.
func (s *Store) document() ([]byte, error) {
	raw, ok, err := s.JSONString(false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte("{}"), nil
	}
	return []byte(raw), nil
}
