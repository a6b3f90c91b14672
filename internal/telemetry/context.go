package telemetry

import "context"

// Turn identifies the user turn an event belongs to.
type Turn struct {
	ID       string
	ThreadID string
}

type turnKey struct{}

// WithTurn returns a child context that carries t.
func WithTurn(ctx context.Context, t Turn) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, turnKey{}, t)
}

// TurnFromContext returns the turn carried by ctx.
// Returns false if there is none or its ID is empty.
func TurnFromContext(ctx context.Context) (Turn, bool) {
	if ctx == nil {
		return Turn{}, false
	}
	t, ok := ctx.Value(turnKey{}).(Turn)
	if !ok || t.ID == "" {
		return Turn{}, false
	}
	return t, true
}

// turnFields adds turn_id and thread_id to fields when ctx carries a turn.
func turnFields(ctx context.Context, fields map[string]any) {
	if t, ok := TurnFromContext(ctx); ok {
		fields["turn_id"] = t.ID
		fields["thread_id"] = t.ThreadID
	}
}
