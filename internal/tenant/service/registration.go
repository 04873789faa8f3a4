package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"logdata/internal/alerting"
	jwttoken "logdata/internal/jwt_token"
	"logdata/internal/pubkey"
	tenantmetrics "logdata/internal/tenant/metrics"
	"logdata/internal/tenant/models"
	id "logdata/pkg/domain"
	dErrors "logdata/pkg/domain-errors"
)

const registrationSubject = "Your registration token"

// RegistrationTokens issues and verifies shared-secret registration tokens.
type RegistrationTokens interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, token string) (*jwttoken.RegistrationClaims, error)
	TTL() time.Duration
}

// Mailer delivers the registration token to the requester.
type Mailer interface {
	Send(ctx context.Context, msg alerting.Message) error
}

// Registration runs company self-registration: a token is mailed to an
// address, then exchanged together with the company's key for a tenant record.
type Registration struct {
	directory *Directory
	tokens    RegistrationTokens
	mailer    Mailer
	audit     *auditEmitter
	logger    *slog.Logger
	metrics   *tenantmetrics.Metrics
}

func NewRegistration(directory *Directory, tokens RegistrationTokens, mailer Mailer, opts ...Option) *Registration {
	cfg := newConfig(opts)
	return &Registration{
		directory: directory,
		tokens:    tokens,
		mailer:    mailer,
		audit:     &auditEmitter{logger: cfg.logger},
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}
}

// RequestRegistration mails a registration token to req.Email.
func (r *Registration) RequestRegistration(ctx context.Context, req *models.RegistrationTokenRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	token, err := r.tokens.Issue(ctx, req.Email)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue registration token")
	}

	err = r.mailer.Send(ctx, alerting.Message{
		Subject:   registrationSubject,
		Recipient: req.Email,
		Body:      registrationBody(token, r.tokens.TTL()),
	})
	if err != nil {
		r.metrics.IncrementRegistrationEmail(false)
		return dErrors.Wrap(err, dErrors.CodeAlertingFailed, "Failed to send registration email")
	}
	r.metrics.IncrementRegistrationEmail(true)
	r.audit.emitRegistrationRequested(ctx, models.RegistrationRequested{Email: req.Email})
	return nil
}

func registrationBody(token string, ttl time.Duration) string {
	return fmt.Sprintf("Your registration token is:\n\n%s\n\nValid for %d minutes.\n", token, int(ttl.Minutes()))
}

// RegisterCompany verifies the registration token, validates the public key,
// and creates the tenant. Errors keep their specific codes: the caller
// already holds a token for this flow.
func (r *Registration) RegisterCompany(ctx context.Context, req *models.RegisterCompanyRequest) (*models.Tenant, error) {
	tenant, err := r.registerCompany(ctx, req)
	if err != nil {
		r.metrics.IncrementRegistrationFailure(string(dErrors.CodeOf(err)))
		return nil, err
	}
	r.metrics.IncrementTenantsRegistered()
	return tenant, nil
}

func (r *Registration) registerCompany(ctx context.Context, req *models.RegisterCompanyRequest) (*models.Tenant, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := r.tokens.Verify(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	// The key is stored exactly as submitted once it validates.
	if _, err := pubkey.ValidateRSA(req.CompanyPublicKey); err != nil {
		return nil, err
	}

	tenant, err := r.directory.Register(ctx, id.NewTenantID(), req.CompanyPublicKey, req.CompanyName, req.AlertEmails)
	if err != nil {
		return nil, err
	}

	r.audit.emitTenantRegistered(ctx, models.TenantRegistered{
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		Email:      claims.Email,
		Recipients: len(tenant.AlertRecipients),
	})
	return tenant, nil
}
