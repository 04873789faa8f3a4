package request

import (
	"fmt"
	"net/http"

	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/platform/httputil"
)

// BodyLimit rejects a declared Content-Length over maxBytes up front and caps
// streamed bodies with http.MaxBytesReader, which the JSON decoder reports as
// payload_too_large.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteError(w, dErrors.New(dErrors.CodeTooLarge, fmt.Sprintf("request body exceeds %d bytes", maxBytes)))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
