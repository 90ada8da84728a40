package httputil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/apartment-mgmt/resident/pkg/logger"
)

// MiddlewareLogging logs method, path, status, duration and X-Request-ID.
// Bodies are not logged: login payloads carry passwords.
func MiddlewareLogging(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.L()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &logResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)

			reqID, _ := FromContext(r.Context())
			log.LogAttrs(r.Context(), levelFor(lrw.status), "http request",
				slog.String("req_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.Int("status", lrw.status),
				slog.Int("bytes", lrw.bytes),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type logResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *logResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// LoggingTransport is the outbound counterpart of MiddlewareLogging.
type LoggingTransport struct {
	Base http.RoundTripper
	Log  *slog.Logger
}

func (t *LoggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	log := t.Log
	if log == nil {
		log = logger.L()
	}

	start := time.Now()
	resp, err := base(t.Base).RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("req_id", r.Header.Get(HeaderRequestID)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Duration("duration", time.Since(start)),
	}
	attrs = append(attrs, logger.AttrsFromCtx(r.Context())...)
	if err != nil {
		log.LogAttrs(r.Context(), slog.LevelWarn, "api call failed", append(attrs, slog.Any("err", err))...)
		return nil, err
	}

	log.LogAttrs(r.Context(), levelFor(resp.StatusCode), "api call", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}
