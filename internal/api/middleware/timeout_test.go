package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeout(t *testing.T) {
	t.Run("request context carries a deadline", func(t *testing.T) {
		var deadline time.Time
		var ok bool
		handler := Timeout(5 * time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline, ok = r.Context().Deadline()
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/b-1", nil))

		require.True(t, ok)
		assert.InDelta(t, 5*time.Second, time.Until(deadline), float64(time.Second))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("context is cancelled after the handler returns", func(t *testing.T) {
		var done <-chan struct{}
		handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done = r.Context().Done()
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		select {
		case <-done:
		default:
			t.Fatal("context not cancelled after completion")
		}
	})
}
