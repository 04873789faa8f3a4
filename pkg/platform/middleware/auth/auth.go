package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/requestcontext"
)

// LogTokenAuthenticator verifies a tenant-signed log-submission token and
// returns the submitter it proves. Errors carry a domain error code and the
// client-facing reason.
type LogTokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*requestcontext.Submitter, error)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errCode, ErrorDescription: errDesc})
}

// RequireLogToken returns middleware that authenticates the bearer token as a
// log-submission token and stores the verified submitter in the context.
// Every rejection is a 401; the description is the verifier's generic reason.
func RequireLogToken(authenticator LogTokenAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, string(dErrors.CodeUnauthorized), "Missing or invalid Authorization header")
				return
			}

			submitter, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - log token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				code := dErrors.CodeOf(err)
				if code != dErrors.CodeTokenExpired {
					code = dErrors.CodeUnauthorized
				}
				writeJSONError(w, http.StatusUnauthorized, string(code), err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSubmitter(ctx, submitter)))
		})
	}
}
