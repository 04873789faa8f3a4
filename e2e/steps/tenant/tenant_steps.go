package tenant

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/cucumber/godog"

	jwttoken "logdata/internal/jwt_token"
	"logdata/pkg/testutil"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetRegistrationSecret() string
	CompanyName(label string) string
	CompanyKey(label string) *testutil.TenantKey
	T() testing.TB
}

// RegisterSteps registers the self-registration steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &tenantSteps{tc: tc}

	ctx.Step(`^I request a registration token for "([^"]*)"$`, steps.requestRegistrationToken)
	ctx.Step(`^I register company "([^"]*)" with alert email "([^"]*)"$`, steps.registerCompany)
	ctx.Step(`^I register company "([^"]*)" with registration token "([^"]*)"$`, steps.registerCompanyWithToken)
	ctx.Step(`^company "([^"]*)" is registered with alert email "([^"]*)"$`, steps.companyIsRegistered)
	ctx.Step(`^the response should contain a company id$`, steps.responseShouldContainCompanyID)
}

type tenantSteps struct {
	tc TestContext
}

func (s *tenantSteps) requestRegistrationToken(_ context.Context, email string) error {
	return s.tc.POST("/request_registration", map[string]any{"email": email})
}

// registrationToken mints the token the server would have mailed to email.
func (s *tenantSteps) registrationToken(ctx context.Context, email string) (string, error) {
	tokens, err := jwttoken.NewRegistrationTokenService(s.tc.GetRegistrationSecret(), 0)
	if err != nil {
		return "", err
	}
	return tokens.Issue(ctx, email)
}

func (s *tenantSteps) registerCompany(ctx context.Context, label, email string) error {
	token, err := s.registrationToken(ctx, email)
	if err != nil {
		return err
	}
	return s.registerCompanyWithToken(ctx, label, token)
}

func (s *tenantSteps) registerCompanyWithToken(_ context.Context, label, token string) error {
	return s.tc.POST("/register_company", map[string]any{
		"token":              token,
		"company_name":       s.tc.CompanyName(label),
		"company_public_key": s.tc.CompanyKey(label).PublicPEM,
		"alert_emails":       []string{"alerts@" + label + ".example"},
	})
}

func (s *tenantSteps) companyIsRegistered(ctx context.Context, label, email string) error {
	if err := s.registerCompany(ctx, label, email); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("register %s: expected status 200 but got %d", label, status)
	}
	return nil
}

func (s *tenantSteps) responseShouldContainCompanyID(_ context.Context) error {
	id, err := s.tc.GetResponseField("company_id")
	if err != nil {
		return err
	}
	if str, ok := id.(string); !ok || str == "" {
		return fmt.Errorf("company_id is empty")
	}
	return nil
}
