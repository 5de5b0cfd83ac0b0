package state

import (
	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/activity"
)

func changeEvents(rec *Record, changes []params.Change) []activity.Event {
	if len(changes) == 0 {
		return nil
	}
	ref := rec.Ref()
	meta := rec.Meta()
	recordID, err := ref.Identifier()
	if err != nil {
		recordID = ref.Domain
	}
	scope := activity.ScopeContext{
		Name:       ref.Scope.Name,
		Label:      ref.Scope.Label,
		Priority:   ref.Scope.Priority,
		Metadata:   ref.Scope.Metadata,
		SnapshotID: meta.SnapshotID,
	}

	events := make([]activity.Event, 0, len(changes))
	for _, change := range changes {
		input := activity.ChangeInput{
			Op:         string(change.Op),
			Path:       change.Path,
			OldValue:   change.Old,
			NewValue:   change.New,
			RecordID:   recordID,
			Domain:     ref.Domain,
			Scope:      scope,
			OccurredAt: change.At,
		}
		if change.Op == params.OpSet || change.Op == params.OpMerge {
			input.Mode = change.Mode.String()
		}
		events = append(events, activity.BuildParamsEvent(input))
	}
	return events
}
