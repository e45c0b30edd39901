package logging

import (
	"context"
	"log/slog"
)

// LogStoreEvent logs a structured data-store event such as a failed probe,
// a degraded query or a skipped record. err and details are optional.
func LogStoreEvent(
	ctx context.Context,
	level slog.Level,
	msg, event, table string,
	err error,
	details map[string]any,
) {
	attrs := []slog.Attr{
		slog.String("store.event", event),
		slog.String("store.table", table),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	if len(details) > 0 {
		attrs = append(attrs, slog.Any("store.details", details))
	}
	LoggerFromContext(ctx).LogAttrs(ctx, level, msg, attrs...)
}
