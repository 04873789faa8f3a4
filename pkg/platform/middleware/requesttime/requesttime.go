// Package requesttime captures a single "now" per request so token expiry checks,
// received_at stamps, and audit logs within one request agree on the time.
package requesttime

import (
	"net/http"
	"time"

	"logdata/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
