package activity

import (
	"testing"
	"time"
)

func TestBuildParamsEventIncludesScopeMetadata(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	input := ChangeInput{
		Op:       "set",
		Mode:     "merge",
		Path:     "notifications.email",
		OldValue: false,
		NewValue: true,
		RecordID: "user/u42/prefs",
		Domain:   "prefs",
		Scope: ScopeContext{
			Name:       "user",
			Label:      "User",
			Priority:   500,
			Metadata:   map[string]any{"user_id": "u42"},
			SnapshotID: "snap-1",
		},
		Metadata:   map[string]any{"custom": "value"},
		OccurredAt: at,
	}

	event := BuildParamsEvent(input)

	if event.Verb != VerbSet || event.ObjectType != ObjectType || event.ObjectID != "user/u42/prefs" {
		t.Fatalf("unexpected identity %+v", event)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("expected timestamp preserved")
	}
	want := map[string]any{
		"custom":         "value",
		"path":           "notifications.email",
		"mode":           "merge",
		"domain":         "prefs",
		"scope_name":     "user",
		"scope_priority": 500,
		"scope_label":    "User",
		"snapshot_id":    "snap-1",
		"old_value":      false,
		"new_value":      true,
	}
	for key, value := range want {
		if event.Metadata[key] != value {
			t.Fatalf("metadata[%q] = %#v, want %#v", key, event.Metadata[key], value)
		}
	}
	scopeMeta, ok := event.Metadata["scope_metadata"].(map[string]any)
	if !ok || scopeMeta["user_id"] != "u42" {
		t.Fatalf("expected scope metadata, got %#v", event.Metadata["scope_metadata"])
	}
	if input.Metadata["path"] != nil {
		t.Fatalf("input metadata must not be mutated")
	}
}

func TestBuildParamsEventVerbsAndFallbacks(t *testing.T) {
	cases := []struct {
		op   string
		verb string
	}{
		{op: "set", verb: VerbSet},
		{op: "add", verb: VerbAdded},
		{op: "unset", verb: VerbUnset},
		{op: "clear", verb: VerbCleared},
		{op: "replace", verb: VerbReplaced},
		{op: "merge", verb: VerbMerged},
		{op: "patch", verb: VerbPatched},
		{op: "merge_patch", verb: VerbPatched},
		{op: "bogus", verb: ""},
	}
	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			event := BuildParamsEvent(ChangeInput{Op: tc.op})
			if event.Verb != tc.verb {
				t.Fatalf("verb = %q, want %q", event.Verb, tc.verb)
			}
			if event.ObjectID != ObjectType {
				t.Fatalf("expected object id fallback, got %q", event.ObjectID)
			}
			if event.Metadata != nil {
				t.Fatalf("expected no metadata, got %#v", event.Metadata)
			}
		})
	}

	if got := BuildParamsEvent(ChangeInput{Op: "set", Domain: "prefs"}); got.ObjectID != "prefs" {
		t.Fatalf("expected domain fallback, got %q", got.ObjectID)
	}
}
