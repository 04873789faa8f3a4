package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"logdata/internal/logs/models"
	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/platform/httputil"
	"logdata/pkg/requestcontext"
)

const msgLogReceived = "Log received successfully"

type Service interface {
	Ingest(ctx context.Context, tenantName string, payload *models.LogPayload) (*models.IngestResult, error)
	Search(ctx context.Context, tenantName string, req *models.SearchRequest) ([]*models.Record, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the log routes. The caller must wrap r with log-token
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/logs", h.HandleIngest)
	r.Post("/logs/search", h.HandleSearch)
}

// HandleIngest stores a log for the authenticated tenant. A log that was
// stored but whose alert failed is answered with 202 and alert "failed".
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	submitter := requestcontext.GetSubmitter(ctx)
	if submitter == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid token."))
		return
	}

	payload, ok := httputil.DecodeJSON[models.LogPayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Ingest(ctx, submitter.TenantName, payload)
	status := http.StatusOK
	if err != nil {
		if result == nil || !dErrors.HasCode(err, dErrors.CodeAlertingFailed) {
			h.logger.ErrorContext(ctx, "ingest log failed", "error", err, "request_id", requestID)
			httputil.WriteError(w, err)
			return
		}
		status = http.StatusAccepted
	}

	httputil.WriteJSON(w, status, &models.IngestResponse{
		Message: msgLogReceived,
		Company: submitter.TenantName,
		Alert:   result.Alert,
	})
}

// HandleSearch returns the authenticated tenant's logs matching the filter.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	submitter := requestcontext.GetSubmitter(ctx)
	if submitter == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid token."))
		return
	}

	req, ok := httputil.DecodeOptionalJSON[models.SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	records, err := h.service.Search(ctx, submitter.TenantName, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "search logs failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.SearchResponse{Logs: records, Count: len(records)})
}
