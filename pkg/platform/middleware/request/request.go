// Package request provides request-ID correlation middleware.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"trustrent/pkg/requestcontext"
)

// HeaderRequestID is the header the ID is read from and echoed on.
const HeaderRequestID = "X-Request-ID"

// Middleware attaches a correlation ID to every request. An inbound
// X-Request-ID is trusted and propagated; otherwise a fresh UUID is minted.
// The ID is echoed on the response so clients can quote it in reports.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
