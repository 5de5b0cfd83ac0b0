package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " params.set ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " params ",
		ObjectID:   " user/u1/prefs ",
		Channel:    " params ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "params.set" || got.ObjectType != "params" || got.ObjectID != "user/u1/prefs" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "params" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyDropsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), Event{Verb: "params.set"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured")
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	//nolint:staticcheck // nil context falls back to Background
	err := hooks.Notify(nil, Event{Verb: "params.set", ObjectType: "params", ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events()) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events()))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: "params.set", ObjectType: "params", ObjectID: "1"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	var nilEmitter *Emitter
	if nilEmitter.Enabled() || nilEmitter.Emit(context.Background(), event) != nil {
		t.Fatalf("nil emitter must be inert")
	}

	enabled := NewEmitter(Hooks{capture, nil}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	events := capture.Events()
	if len(events) != 1 || events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %+v", events)
	}
}

func TestEmitterPreservesExplicitFields(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ctx := WithActor(context.Background(), Actor{ID: "ctx-actor", TenantID: "t1"})
	err := emitter.Emit(ctx, Event{
		Verb:       "params.set",
		ActorID:    "explicit",
		ObjectType: "params",
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events()[0]
	if got.Channel != "custom" || !got.OccurredAt.Equal(at) {
		t.Fatalf("expected explicit channel and time preserved, got %+v", got)
	}
	if got.ActorID != "explicit" || got.UserID != "ctx-actor" || got.TenantID != "t1" {
		t.Fatalf("unexpected actor fields %+v", got)
	}
}

func TestEmitAllStopsAtFirstError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	emitter := NewEmitter(Hooks{HookFunc(func(context.Context, Event) error {
		calls++
		return boom
	})}, Config{Enabled: true})

	events := []Event{
		{Verb: "params.set", ObjectType: "params", ObjectID: "1"},
		{Verb: "params.unset", ObjectType: "params", ObjectID: "1"},
	}
	if err := emitter.EmitAll(context.Background(), events); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}

func TestActorFromContext(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatalf("expected no actor")
	}
	ctx := WithActor(context.Background(), Actor{ID: "a"})
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ID != "a" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}
