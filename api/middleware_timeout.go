package api

import (
	"net/http"
	"time"
)

const timeoutBody = `{"error": "request timeout"}`

// TimeoutMiddleware bounds request handling. http.TimeoutHandler owns the
// ResponseWriter after the deadline fires, so a late handler write can
// never race the timeout response.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
