// Package service implements the tenant directory and the self-registration flow.
package service

import (
	"context"
	"errors"

	"logdata/internal/tenant/models"
	id "logdata/pkg/domain"
	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/platform/sentinel"
	"logdata/pkg/requestcontext"
)

// Client-facing messages for directory failures.
const (
	msgCompanyDoesNotExist = "Company does not exist"
	msgPublicKeyNotFound   = "Public key not found for the company"
	msgCompanyExists       = "Company already exists"
	msgCompanyNotFound     = "Company not found"
)

// Directory maps company names to their records. Names match exactly.
type Directory struct {
	tenants TenantStore
}

func NewDirectory(tenants TenantStore) *Directory {
	return &Directory{tenants: tenants}
}

// LookupPublicKey returns the key text on record for tenantName.
func (d *Directory) LookupPublicKey(ctx context.Context, tenantName string) (string, error) {
	tenant, err := d.tenants.FindByName(ctx, tenantName)
	if err != nil {
		return "", wrapTenantErr(err, msgCompanyDoesNotExist, "failed to load company")
	}
	if !tenant.HasPublicKey() {
		return "", dErrors.New(dErrors.CodeNotFound, msgPublicKeyNotFound)
	}
	return tenant.PublicKey, nil
}

// Register inserts a new company. The existence check only exits early; the
// store's uniqueness guarantee decides concurrent registrations.
func (d *Directory) Register(ctx context.Context, tenantID id.TenantID, publicKey, tenantName string, alertRecipients []string) (*models.Tenant, error) {
	tenant, err := models.NewTenant(tenantID, tenantName, publicKey, alertRecipients, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if _, err := d.tenants.FindByName(ctx, tenantName); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, msgCompanyExists)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check company name")
	}

	if err := d.tenants.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, msgCompanyExists)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register company")
	}
	return tenant, nil
}

// GetTenant returns the record for tenantName.
func (d *Directory) GetTenant(ctx context.Context, tenantName string) (*models.Tenant, error) {
	tenant, err := d.tenants.FindByName(ctx, tenantName)
	if err != nil {
		return nil, wrapTenantErr(err, msgCompanyNotFound, "failed to load company")
	}
	return tenant, nil
}

// wrapTenantErr translates store sentinels into domain errors.
func wrapTenantErr(err error, notFoundMsg, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
