package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/civiclens/civic-complaints-api/api"
)

func TestTimeoutMiddlewarePassesFastRequests(t *testing.T) {
	handler := api.TimeoutMiddleware(time.Second)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/complaints", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestTimeoutMiddlewareAnswersOnceAfterDeadline(t *testing.T) {
	release := make(chan struct{})
	handler := api.TimeoutMiddleware(10*time.Millisecond)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			<-release
			// this write lands after the deadline and must not reach the
			// client response
			w.Write([]byte("late"))
		}))

	rr := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/complaints", nil))
		close(done)
	}()
	<-done

	close(release)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "request timeout")
	assert.NotContains(t, rr.Body.String(), "late")
}
