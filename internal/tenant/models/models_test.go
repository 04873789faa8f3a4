package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "logdata/pkg/domain"
	dErrors "logdata/pkg/domain-errors"
)

type TenantModelSuite struct {
	suite.Suite
}

func TestTenantModelSuite(t *testing.T) {
	suite.Run(t, new(TenantModelSuite))
}

func (s *TenantModelSuite) TestNewTenant() {
	now := time.Now()
	tenantID := id.TenantID(uuid.New())

	s.Run("valid tenant", func() {
		recipients := []string{"ops@acme.com", "sre@acme.com"}
		tenant, err := NewTenant(tenantID, "Acme", "-----BEGIN PUBLIC KEY-----", recipients, now)
		s.Require().NoError(err)
		s.Equal("Acme", tenant.Name)
		s.Equal(recipients, tenant.AlertRecipients)
		s.True(tenant.HasPublicKey())

		recipients[0] = "changed@acme.com"
		s.Equal("ops@acme.com", tenant.AlertRecipients[0], "recipients must be copied")
	})

	cases := []struct {
		name       string
		tenantID   id.TenantID
		tenantName string
		key        string
		recipients []string
	}{
		{"nil id", id.TenantID{}, "Acme", "key", []string{"a@b.c"}},
		{"empty name", tenantID, "", "key", []string{"a@b.c"}},
		{"long name", tenantID, strings.Repeat("x", MaxNameLength+1), "key", []string{"a@b.c"}},
		{"empty key", tenantID, "Acme", "", []string{"a@b.c"}},
		{"no recipients", tenantID, "Acme", "key", nil},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := NewTenant(tc.tenantID, tc.tenantName, tc.key, tc.recipients, now)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func (s *TenantModelSuite) TestRegisterCompanyRequest() {
	s.Run("normalizes and validates", func() {
		req := &RegisterCompanyRequest{
			Token:            " tok ",
			CompanyName:      "  Acme ",
			CompanyPublicKey: "-----BEGIN PUBLIC KEY-----",
			AlertEmails:      []string{" ops@acme.com ", ""},
		}
		req.Normalize()
		s.Require().NoError(req.Validate())
		s.Equal("Acme", req.CompanyName)
		s.Equal([]string{"ops@acme.com"}, req.AlertEmails)
	})

	s.Run("keeps repeated alert emails in order", func() {
		req := &RegisterCompanyRequest{
			Token:            "tok",
			CompanyName:      "Acme",
			CompanyPublicKey: "key",
			AlertEmails:      []string{"ops@acme.com", " dev@acme.com", "ops@acme.com"},
		}
		req.Normalize()
		s.Equal([]string{"ops@acme.com", "dev@acme.com", "ops@acme.com"}, req.AlertEmails)
	})

	s.Run("rejects invalid alert email", func() {
		req := &RegisterCompanyRequest{
			Token:            "tok",
			CompanyName:      "Acme",
			CompanyPublicKey: "key",
			AlertEmails:      []string{"not-an-email"},
		}
		err := req.Validate()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("requires at least one alert email", func() {
		req := &RegisterCompanyRequest{Token: "tok", CompanyName: "Acme", CompanyPublicKey: "key"}
		err := req.Validate()
		s.Require().Error(err)
		s.Equal("alert_emails is required", err.Error())
	})

	s.Run("requires company name", func() {
		req := &RegisterCompanyRequest{Token: "tok", CompanyName: "   ", CompanyPublicKey: "key", AlertEmails: []string{"a@b.co"}}
		err := req.Validate()
		s.Require().Error(err)
		s.Equal("company_name must not be blank", err.Error())
	})
}

func (s *TenantModelSuite) TestRegistrationTokenRequest() {
	req := &RegistrationTokenRequest{Email: " founder@acme.com "}
	req.Normalize()
	s.Require().NoError(req.Validate())
	s.Equal("founder@acme.com", req.Email)

	bad := &RegistrationTokenRequest{Email: "nope"}
	err := bad.Validate()
	s.Require().Error(err)
	s.Equal("email must be a valid email", err.Error())
}
