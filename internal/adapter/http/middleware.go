package http

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// statusWriter records the status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// accessLog logs one line per request. Requests taking at least slow are
// logged at warn level.
func accessLog(logger *slog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			level := slog.LevelInfo
			if slow > 0 && elapsed >= slow {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request done",
				slog.Int("status", sw.status),
				slog.Duration("elapsed", elapsed),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("bytes", sw.bytes),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
