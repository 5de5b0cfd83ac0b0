// Package state persists params documents per scope and hosts the
// lifecycle a record owning a params column goes through.
//
// A Record holds the raw column value for one Ref and exposes it to a
// *params.Store through the params.Adapter contract:
//
//	rec := state.NewRecord(ref)
//	rec.OnAfterLoad(raw, meta)      // after the host read the row
//	rec.Params().SetParam("a.b", 1, params.Replace)
//	raw, _ := rec.OnBeforePersist() // right before the host writes the row
//
// RawStore implementations load and save the raw string for a Ref. The
// Resolver ties both together: Open and Persist run the lifecycle against a
// RawStore, Mutate wraps a change in optimistic concurrency (ETag) checks
// and reports the store's change journal as activity events, and Resolve
// merges the documents of several scopes into one read-only view where
// higher priority scopes win.
//
// Ref.Identifier gives the canonical storage key:
//
//	system/<domain>
//	tenant|org|team|user/<id>/<domain>
//
// where <id> comes from the "<scope>_id" metadata key.
package state
