package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"logdata/internal/tenant/models"
	"logdata/pkg/platform/httputil"
	"logdata/pkg/requestcontext"
)

const (
	msgRegistrationEmailSent = "A temporary registration email has been sent to your email."
	msgCompanyRegistered     = "Company successfully registered."
)

// Service is the registration flow the handler exposes.
type Service interface {
	RequestRegistration(ctx context.Context, req *models.RegistrationTokenRequest) error
	RegisterCompany(ctx context.Context, req *models.RegisterCompanyRequest) (*models.Tenant, error)
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	requestLimit []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithRequestLimit wraps /request_registration, the only route that sends mail
// to an unauthenticated caller.
func WithRequestLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if mw != nil {
			h.requestLimit = append(h.requestLimit, mw)
		}
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the unauthenticated registration routes.
func (h *Handler) Register(r chi.Router) {
	r.With(h.requestLimit...).Post("/request_registration", h.HandleRequestRegistration)
	r.Post("/register_company", h.HandleRegisterCompany)
}

// HandleRequestRegistration mails a short-lived registration token.
func (h *Handler) HandleRequestRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegistrationTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.RequestRegistration(ctx, req); err != nil {
		h.logger.ErrorContext(ctx, "request registration failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.MessageResponse{Message: msgRegistrationEmailSent})
}

// HandleRegisterCompany exchanges a registration token and public key for a company record.
func (h *Handler) HandleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterCompanyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := h.service.RegisterCompany(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "register company failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.CompanyRegisteredResponse{
		Message:   msgCompanyRegistered,
		CompanyID: tenant.ID.String(),
	})
}
