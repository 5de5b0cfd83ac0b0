// Package params keeps a nested, dot-addressable parameter tree that is
// persisted as a single JSON document inside a host record.
//
// A Store materializes lazily: the first read or write pulls the raw
// document from its Adapter, decodes it, and falls back to an empty tree
// when the document is missing or malformed. From then on the tree is the
// source of truth and every mutation writes the re-encoded document back
// through the adapter.
//
//	store := params.New(params.WithAdapter(record))
//	_ = store.SetParam("car.info.age", 3, params.Replace)
//	age := store.GetParam("car.info.age", 0)
//
// Paths split on ".". Reads check for an exact top level key before
// descending, so a key literally named "a.b" shadows the nested path.
// Writes create intermediate mappings and replace any scalar or sequence
// found on the way. HasParam and UnsetParam only look at top level keys.
//
// An empty tree encodes to an absent value, never "{}", so hosts can store
// NULL for records without params.
package params
