package service

import (
	"context"
	"log/slog"

	"logdata/internal/platform/privacy"
	"logdata/internal/tenant/models"
	"logdata/pkg/requestcontext"
)

// TenantStore persists tenant records. CreateIfNameAvailable must be atomic
// with respect to the name and report a taken name as sentinel.ErrAlreadyUsed.
type TenantStore interface {
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
}

const (
	eventTenantRegistered      = "tenant_registered"
	eventRegistrationRequested = "registration_token_requested"
)

// auditEmitter writes audit events to the structured log.
type auditEmitter struct {
	logger *slog.Logger
}

func (e *auditEmitter) emit(ctx context.Context, event string, attributes ...any) {
	if e.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	attributes = append(attributes, "event", event, "log_type", "audit")
	e.logger.InfoContext(ctx, event, attributes...)
}

func (e *auditEmitter) emitTenantRegistered(ctx context.Context, ev models.TenantRegistered) {
	e.emit(ctx, eventTenantRegistered,
		"tenant_id", ev.TenantID.String(),
		"tenant_name", ev.TenantName,
		"email", privacy.MaskEmail(ev.Email),
		"alert_recipients", ev.Recipients,
	)
}

func (e *auditEmitter) emitRegistrationRequested(ctx context.Context, ev models.RegistrationRequested) {
	e.emit(ctx, eventRegistrationRequested, "email", privacy.MaskEmail(ev.Email))
}
