package server

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder remembers the status and size of a response for the
// access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.size += n
	return n, err
}

// SlogLoggingMiddleware writes one access log record per request. Server
// errors are logged at error level, rejected requests at warn.
func SlogLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rec.status >= http.StatusBadRequest && rec.status != http.StatusNotFound:
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "http request",
			"category", "http",
			"method", r.Method,
			"path", r.URL.EscapedPath(),
			"status", rec.status,
			"size", rec.size,
			"duration", time.Since(start),
			"ip", actor(r).IPAddress,
		)
	})
}
