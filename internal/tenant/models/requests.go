package models

import (
	"strings"

	s "logdata/pkg/string"
	"logdata/pkg/validation"
)

// RegistrationTokenRequest asks for a registration token to be mailed to Email.
type RegistrationTokenRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (r *RegistrationTokenRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(r.Email)
}

func (r *RegistrationTokenRequest) Validate() error {
	return validation.Validate(r)
}

// RegisterCompanyRequest completes registration with a mailed token.
type RegisterCompanyRequest struct {
	Token            string   `json:"token" validate:"required,notblank"`
	CompanyName      string   `json:"company_name" validate:"required,notblank,max=128"`
	CompanyPublicKey string   `json:"company_public_key" validate:"required,notblank"`
	AlertEmails      []string `json:"alert_emails" validate:"required,min=1,dive,required,email"`
}

func (r *RegisterCompanyRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.Token, &r.CompanyName)
	r.AlertEmails = s.CompactSlice(r.AlertEmails)
}

func (r *RegisterCompanyRequest) Validate() error {
	return validation.Validate(r)
}
