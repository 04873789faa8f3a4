// Package service stores tenant logs, fans ERROR logs out to the tenant's
// alert recipients, and answers tenant-scoped searches.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	logmetrics "logdata/internal/logs/metrics"
	"logdata/internal/logs/models"
	tenantmodels "logdata/internal/tenant/models"
	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/requestcontext"
)

// LogStore persists records and runs filtered reads.
type LogStore interface {
	Save(ctx context.Context, record *models.Record) error
	Search(ctx context.Context, filter models.SearchFilter) ([]*models.Record, error)
}

// TenantDirectory resolves the tenant a verified token names.
type TenantDirectory interface {
	GetTenant(ctx context.Context, tenantName string) (*tenantmodels.Tenant, error)
}

// AlertDispatcher sends one notification per recipient.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, recipients []string, subject, body string) error
}

type Service struct {
	store        LogStore
	directory    TenantDirectory
	dispatcher   AlertDispatcher
	logger       *slog.Logger
	metrics      *logmetrics.Metrics
	defaultLimit int
	maxLimit     int
}

func New(store LogStore, directory TenantDirectory, dispatcher AlertDispatcher, opts ...Option) *Service {
	cfg := newConfig(opts)
	return &Service{
		store:        store,
		directory:    directory,
		dispatcher:   dispatcher,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		defaultLimit: cfg.defaultLimit,
		maxLimit:     cfg.maxLimit,
	}
}

// Ingest stores payload for tenantName and alerts on ERROR.
//
// Directory errors are returned as-is. Once the record is stored a result is
// always returned; if alerting then fails the error is alerting_failed and the
// result reports AlertFailed.
func (s *Service) Ingest(ctx context.Context, tenantName string, payload *models.LogPayload) (*models.IngestResult, error) {
	if payload == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "log body is required")
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	tenant, err := s.directory.GetTenant(ctx, tenantName)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if payload.Timestamp == "" {
		payload.Timestamp = now.Format(time.RFC3339)
	}

	record := models.NewRecord(tenant.ID, tenant.Name, *payload, now)
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store log")
	}
	s.metrics.IncrementIngested(record.Log.Level)
	s.logger.InfoContext(ctx, "log ingested",
		"tenant_name", tenant.Name,
		"log_id", record.ID.String(),
		"level", record.Log.Level,
		"request_id", requestcontext.RequestID(ctx),
	)

	result := &models.IngestResult{Record: record, Alert: models.AlertNotRequired}
	if record.Log.Level == models.LevelError {
		if err := s.alert(ctx, tenant, record); err != nil {
			result.Alert = models.AlertFailed
			s.metrics.IncrementAlert(string(result.Alert))
			return result, err
		}
		result.Alert = models.AlertSent
	}
	s.metrics.IncrementAlert(string(result.Alert))
	return result, nil
}

func (s *Service) alert(ctx context.Context, tenant *tenantmodels.Tenant, record *models.Record) error {
	body, err := json.MarshalIndent(record.Log, "", "  ")
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeAlertingFailed, "Failed to encode alert")
	}
	subject := fmt.Sprintf("[%s] ERROR alert from %s", tenant.Name, record.Log.Service)

	if err := s.dispatcher.Dispatch(ctx, tenant.AlertRecipients, subject, string(body)); err != nil {
		s.logger.WarnContext(ctx, "log stored but alerting failed",
			"tenant_name", tenant.Name,
			"log_id", record.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if !dErrors.HasCode(err, dErrors.CodeAlertingFailed) {
			return dErrors.Wrap(err, dErrors.CodeAlertingFailed, "Alert delivery failed")
		}
		return err
	}
	return nil
}

// Search returns tenantName's records matching req. The tenant filter is
// always the caller's own; an empty request returns the tenant's records up
// to the default limit.
func (s *Service) Search(ctx context.Context, tenantName string, req *models.SearchRequest) ([]*models.Record, error) {
	if req == nil {
		req = &models.SearchRequest{}
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenant, err := s.directory.GetTenant(ctx, tenantName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := s.store.Search(ctx, models.SearchFilter{
		TenantID: tenant.ID,
		Level:    req.Level,
		UserName: req.UserName,
		Tags:     req.Tags,
		Start:    req.Start,
		End:      req.End,
		Limit:    s.limit(req.Limit),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search logs")
	}
	s.metrics.ObserveSearch(start, len(records))
	return records, nil
}

func (s *Service) limit(requested int) int {
	switch {
	case requested <= 0:
		return s.defaultLimit
	case requested > s.maxLimit:
		return s.maxLimit
	default:
		return requested
	}
}
