package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/clinicdesk/pkg/logger"
)

// LoggerExtractor adds request_id to every record logged with a request
// context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := Lookup(ctx); ok {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
