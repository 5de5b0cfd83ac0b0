package activity

import "context"

// Actor identifies who performed a change.
type Actor struct {
	ID       string
	UserID   string
	TenantID string
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

func (a Actor) apply(event Event) Event {
	if event.ActorID == "" {
		event.ActorID = a.ID
	}
	if event.UserID == "" {
		event.UserID = a.UserID
		if event.UserID == "" {
			event.UserID = a.ID
		}
	}
	if event.TenantID == "" {
		event.TenantID = a.TenantID
	}
	return event
}
