package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimitMiddleware(t *testing.T) {
	var readErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	t.Run("under the limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
		BodyLimitMiddleware(16)(handler).ServeHTTP(httptest.NewRecorder(), req)
		if readErr != nil {
			t.Errorf("unexpected error: %v", readErr)
		}
	})

	t.Run("over the limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
		BodyLimitMiddleware(16)(handler).ServeHTTP(httptest.NewRecorder(), req)

		var maxErr *http.MaxBytesError
		if !errors.As(readErr, &maxErr) {
			t.Fatalf("expected *http.MaxBytesError, got %v", readErr)
		}
		if maxErr.Limit != 16 {
			t.Errorf("limit = %d, want 16", maxErr.Limit)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
		BodyLimitMiddleware(0)(handler).ServeHTTP(httptest.NewRecorder(), req)
		if readErr != nil {
			t.Errorf("unexpected error: %v", readErr)
		}
	})
}
