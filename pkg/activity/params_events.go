package activity

import (
	"strings"
	"time"
)

// ObjectType is the object type of every params event.
const ObjectType = "params"

// Verbs emitted for params changes.
const (
	VerbSet      = "params.set"
	VerbAdded    = "params.added"
	VerbUnset    = "params.unset"
	VerbCleared  = "params.cleared"
	VerbReplaced = "params.replaced"
	VerbMerged   = "params.merged"
	VerbPatched  = "params.patched"
)

var verbsByOp = map[string]string{
	"set":         VerbSet,
	"add":         VerbAdded,
	"unset":       VerbUnset,
	"clear":       VerbCleared,
	"replace":     VerbReplaced,
	"merge":       VerbMerged,
	"patch":       VerbPatched,
	"merge_patch": VerbPatched,
}

// ScopeContext captures the scope of the record that changed.
type ScopeContext struct {
	Name       string
	Label      string
	Priority   int
	Metadata   map[string]any
	SnapshotID string
}

// ChangeInput describes one recorded params mutation.
type ChangeInput struct {
	// Op is the mutation kind as recorded by the store ("set", "add", ...).
	Op         string
	Mode       string
	Path       string
	OldValue   any
	NewValue   any
	RecordID   string
	Domain     string
	Scope      ScopeContext
	Metadata   map[string]any
	OccurredAt time.Time
}

// VerbForOp maps a store op to its event verb.
func VerbForOp(op string) (string, bool) {
	verb, ok := verbsByOp[strings.TrimSpace(op)]
	return verb, ok
}

// BuildParamsEvent constructs the event for one change. Unknown ops yield
// an event without a verb, which Hooks drop.
func BuildParamsEvent(input ChangeInput) Event {
	verb, _ := VerbForOp(input.Op)

	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Path != "" {
		set("path", input.Path)
	}
	if input.Mode != "" {
		set("mode", input.Mode)
	}
	if input.Domain != "" {
		set("domain", input.Domain)
	}
	if input.Scope.Name != "" {
		set("scope_name", input.Scope.Name)
		set("scope_priority", input.Scope.Priority)
		if input.Scope.Label != "" {
			set("scope_label", input.Scope.Label)
		}
		if len(input.Scope.Metadata) > 0 {
			set("scope_metadata", cloneMap(input.Scope.Metadata))
		}
	}
	if input.Scope.SnapshotID != "" {
		set("snapshot_id", input.Scope.SnapshotID)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.RecordID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Domain)
	}
	if objectID == "" {
		objectID = ObjectType
	}

	return Event{
		Verb:       verb,
		ObjectType: ObjectType,
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
