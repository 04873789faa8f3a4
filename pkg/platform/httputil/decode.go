package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	dErrors "logdata/pkg/domain-errors"
)

// Validatable is implemented by request types that validate themselves.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that trim or canonicalise
// their fields before validation.
type Normalizable interface {
	Normalize()
}

// DecodeJSON decodes the body into a new T. On failure it writes the error
// response and returns false; the caller just returns.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := decodeBody(r.Body, &req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

// DecodeOptionalJSON is DecodeJSON for endpoints where an absent body means
// the zero request.
func DecodeOptionalJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := decodeBody(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

func decodeBody(body io.Reader, dst any) error {
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		return dErrors.Wrap(err, dErrors.CodeTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "request body is empty")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("%s has the wrong type", typeErr.Field))
	default:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
}

// PrepareRequest normalizes then validates req when it supports either step.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare is DecodeJSON followed by PrepareRequest. Plain errors
// from Validate are reported as validation failures.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}

	if err := PrepareRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestID,
		)
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
