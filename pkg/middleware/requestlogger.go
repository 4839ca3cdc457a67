package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/logger"
)

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, trace_id and span_id, then stores it in context via
// logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount it AFTER RequestLogging (which sets correlation_id) and Tracing
// (which sets the OpenTelemetry span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithOperator records the signed-in operator on ctx and extends the
// request-scoped logger with admin_id and the short session ID. The session
// guard calls it once the session has been loaded.
func WithOperator(ctx context.Context, adminID, sessionID string) context.Context {
	l := logger.FromContext(ctx)
	if adminID != "" {
		ctx = logger.WithAdminID(ctx, adminID)
		l = l.With(slog.String("admin_id", adminID))
	}
	if sessionID != "" {
		ctx = logger.WithSession(ctx, sessionID)
		if len(sessionID) > 8 {
			sessionID = sessionID[:8]
		}
		l = l.With(slog.String("session", sessionID))
	}
	return logger.NewContext(ctx, l)
}
