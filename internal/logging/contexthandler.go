package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes describing live state (center, shape
// count, editor state) at the moment a record is logged.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and appends the provider's
// attributes to each record, grouped under "ctx".
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		if attrs := h.provider(); len(attrs) > 0 {
			args := make([]any, len(attrs))
			for i, a := range attrs {
				args[i] = a
			}
			r.AddAttrs(slog.Group("ctx", args...))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) wrap(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner, provider: h.provider}
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.wrap(h.inner.WithAttrs(attrs))
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.wrap(h.inner.WithGroup(name))
}
