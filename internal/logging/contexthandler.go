package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes evaluated at the moment a record is written.
type ContextProvider func() []slog.Attr

// SessionContext tags records with the active session name and the world
// tick. The session is left out while none is active.
func SessionContext(session func() string, tick func() uint64) ContextProvider {
	return func() []slog.Attr {
		attrs := make([]slog.Attr, 0, 2)
		if session != nil {
			if name := session(); name != "" {
				attrs = append(attrs, slog.String("session", name))
			}
		}
		if tick != nil {
			attrs = append(attrs, slog.Uint64("tick", tick()))
		}
		return attrs
	}
}

// ContextHandler appends the provider's attributes to every record.
type ContextHandler struct {
	slog.Handler
	provider ContextProvider
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{Handler: inner, provider: provider}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.Handler.WithAttrs(attrs), h.provider)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.Handler.WithGroup(name), h.provider)
}
