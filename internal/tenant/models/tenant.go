package models

import (
	"slices"
	"time"

	id "logdata/pkg/domain"
	dErrors "logdata/pkg/domain-errors"
)

const MaxNameLength = 128

// Tenant is a registered company. It is created once and never updated.
type Tenant struct {
	ID              id.TenantID `json:"company_id"`
	Name            string      `json:"company_name"`
	PublicKey       string      `json:"public_key"`
	AlertRecipients []string    `json:"alert_emails"`
	CreatedAt       time.Time   `json:"created_at"`
}

func NewTenant(tenantID id.TenantID, name, publicKey string, alertRecipients []string, now time.Time) (*Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "company id cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "company name must be 128 characters or less")
	}
	if publicKey == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "public key cannot be empty")
	}
	if len(alertRecipients) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one alert email is required")
	}
	return &Tenant{
		ID:              tenantID,
		Name:            name,
		PublicKey:       publicKey,
		AlertRecipients: slices.Clone(alertRecipients),
		CreatedAt:       now,
	}, nil
}

// HasPublicKey reports whether a key is on record. Registration guarantees
// one, but records written by other tools may lack it.
func (t *Tenant) HasPublicKey() bool {
	return t.PublicKey != ""
}
