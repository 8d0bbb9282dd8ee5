package faults

import "context"

type contextKey string

const (
	actorIDKey  contextKey = "actor_id"
	updateIDKey contextKey = "update_id"
	handlerKey  contextKey = "handler"
)

// WithActorID annotates context with the platform user identifier.
func WithActorID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, actorIDKey, id)
}

// ActorIDFromContext extracts the platform user identifier if present.
func ActorIDFromContext(ctx context.Context) (int64, bool) {
	switch v := ctx.Value(actorIDKey).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// WithUpdateID annotates context with the inbound update identifier.
func WithUpdateID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, updateIDKey, id)
}

// UpdateIDFromContext extracts the inbound update identifier if present.
func UpdateIDFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(updateIDKey).(int64); ok {
		return v, true
	}
	return 0, false
}

// WithHandler annotates context with the handler name routing the update.
func WithHandler(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, handlerKey, name)
}

// HandlerFromContext returns the handler name if present.
func HandlerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(handlerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
