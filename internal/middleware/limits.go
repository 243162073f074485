package middleware

import (
	"net/http"
	"time"
)

const (
	// DefaultMaxBodySize bounds JSON request bodies. Checkout submissions
	// are small; anything near this limit is abuse.
	DefaultMaxBodySize = 1 << 20 // 1MB

	// DefaultRequestTimeout bounds handler execution, covering the
	// outbound gateway call during checkout.
	DefaultRequestTimeout = 30 * time.Second
)

// MaxBodySize rejects request bodies over maxBytes with 413. A zero limit
// uses DefaultMaxBodySize.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds request handling, answering 503 when the handler has not
// produced a response in time. A zero duration uses DefaultRequestTimeout.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"request timed out"}`)
	}
}
