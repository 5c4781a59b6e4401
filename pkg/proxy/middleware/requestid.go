package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"bizbridge/gateway/pkg/telemetry/logging"
)

const (
	// RequestIDHeader is the HTTP header for request ID.
	RequestIDHeader = "X-Request-ID"

	// maxRequestIDLength caps client-supplied ids.
	maxRequestIDLength = 128
)

// RequestIDMiddleware attaches a request ID to the context and response
// headers. A client-supplied X-Request-ID is reused when it is short enough;
// otherwise a random UUID is generated.
//
// The id is stored with logging.WithRequestID, so every log record written
// with the request context carries it.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}
