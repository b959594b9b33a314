package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// RequestID tags every request with a fresh UUID, echoes it in the
// X-Request-Id response header, and writes one structured access log
// line per request. Wrapped around the whole router in main.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-Id", id)

			log.Info("request",
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r)
		})
	}
}
