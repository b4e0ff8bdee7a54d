package logger

import (
	"log/slog"
	"net/http"
	"time"
)

// roundTripperFunc adapts a function to http.RoundTripper
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// NewTransport creates HTTP client request logging around next.
// A nil next uses http.DefaultTransport.
func NewTransport(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()

		// Get request size - use max() to handle -1 case (unknown length)
		bytesOut := max(0, int(r.ContentLength))

		resp, err := next.RoundTrip(r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("url", r.URL.Redacted()),
			slog.Duration("duration", time.Since(start)),
			slog.Int("bytes_out", bytesOut),
		}

		// Determine log level based on the outcome
		level := slog.LevelDebug
		switch {
		case err != nil:
			level = slog.LevelError
			attrs = append(attrs, slog.String("error", err.Error()))
		case resp.StatusCode >= http.StatusInternalServerError:
			level = slog.LevelError
			fallthrough
		default:
			attrs = append(attrs,
				slog.Int("status", resp.StatusCode),
				slog.Int("bytes_in", max(0, int(resp.ContentLength))),
			)
		}

		// Log with constant message - let structured fields tell the story
		logger.LogAttrs(r.Context(), level, "HTTP", attrs...)

		return resp, err
	})
}
