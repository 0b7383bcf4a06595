package fetch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/eecc-crawler/pkg/ctxutil"
)

const requestIDHeader = "X-Request-Id"

// loggingTransport logs every outgoing request with method, URL, status
// code and duration. When the context carries a sync run ID it is sent
// upstream as X-Request-Id.
type loggingTransport struct {
	next http.RoundTripper
	log  *slog.Logger
}

func newLoggingTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, log: logger}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := ctxutil.RunIDFromCtx(req.Context()); ok && req.Header.Get(requestIDHeader) == "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id.String())
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Duration("duration", time.Since(start)),
	}

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", err.Error()))
	} else {
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
		if resp.StatusCode >= 500 {
			level = slog.LevelWarn
		}
	}
	t.log.LogAttrs(req.Context(), level, "http.request", attrs...)
	return resp, err
}
