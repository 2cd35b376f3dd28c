package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const attrsKey contextKey = "attrsKey"

// ContextHandler implements [slog.Handler] and adds to each record any
// attributes previously attached to the context with [Ctx].
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps handler so context attributes get logged.
func NewContextHandler(handler slog.Handler) ContextHandler {
	return ContextHandler{Handler: handler}
}

// Handle implements [slog.Handler].
func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs, ok := ctx.Value(attrsKey).([]slog.Attr)
	if !ok {
		return h.Handler.Handle(ctx, record)
	}

	record.AddAttrs(attrs...)

	return h.Handler.Handle(ctx, record)
}

// Ctx returns a context carrying the given attributes, to be picked up by
// the [ContextHandler] on every log line made with it.
func Ctx(ctx context.Context, toAppend ...slog.Attr) context.Context {
	attrs, ok := ctx.Value(attrsKey).([]slog.Attr)
	if !ok {
		attrs = []slog.Attr{}
	}

	attrs = append(attrs, toAppend...)

	return context.WithValue(ctx, attrsKey, attrs)
}

// Feed returns the standard attributes for log lines about one feed.
func Feed(feedID, accountID string) []slog.Attr {
	return []slog.Attr{
		slog.String("feed_id", feedID),
		slog.String("account_id", accountID),
	}
}
