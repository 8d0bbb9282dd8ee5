package logging

import (
	"context"
	"log/slog"

	"vcert/internal/faults"
)

// contextHandler copies the identifiers carried in the request context
// onto every record. Engine code logs through the ctx-aware slog calls
// and gets actor, update, and handler attrs without repeating them at
// each call site.
type contextHandler struct {
	inner slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if id, ok := faults.ActorIDFromContext(ctx); ok {
		rec.AddAttrs(Actor(id))
	}
	if id, ok := faults.UpdateIDFromContext(ctx); ok {
		rec.AddAttrs(Update(id))
	}
	if name, ok := faults.HandlerFromContext(ctx); ok {
		rec.AddAttrs(slog.String("handler", name))
	}
	return h.inner.Handle(ctx, rec)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{inner: h.inner.WithGroup(name)}
}
