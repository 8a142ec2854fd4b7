package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// NewRequestLogger logs every request once it has been handled. Credentials
// are never logged.
func NewRequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			args := []any{
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.String("remote_addr", r.RemoteAddr),
			}
			logger.DebugContext(ctx, "starting request", append(args, headerGroup(r.Header))...)
			sw := StatusWriter{w: w, Status: http.StatusOK}
			next.ServeHTTP(&sw, r)
			args = append(args,
				slog.Int("status", sw.Status),
				slog.Int("bytes", sw.Written),
				slog.Duration("duration", time.Since(start)),
			)
			level := slog.LevelInfo
			if sw.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "finished request", args...)
		})
	}
}

type StatusWriter struct {
	w       http.ResponseWriter
	Status  int
	Written int
}

func (sw *StatusWriter) WriteHeader(status int) {
	sw.Status = status
	sw.w.WriteHeader(status)
}

func (sw *StatusWriter) Header() http.Header { return sw.w.Header() }

func (sw *StatusWriter) Write(b []byte) (int, error) {
	n, err := sw.w.Write(b)
	sw.Written += n
	return n, err
}

func headerGroup(header http.Header) slog.Attr {
	args := make([]any, 0, len(header))
	for k, v := range header {
		if strings.EqualFold(k, "authorization") {
			args = append(args, slog.String(k, "<redacted>"))
			continue
		}
		args = append(args, slog.String(k, strings.Join(v, ",")))
	}
	return slog.Group("headers", args...)
}
