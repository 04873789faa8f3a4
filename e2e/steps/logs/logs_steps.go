package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"logdata/pkg/testutil"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GetLastResponseBody() []byte
	CompanyName(label string) string
	CompanyKey(label string) *testutil.TenantKey
	T() testing.TB
}

// RegisterSteps registers log submission and search steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &logSteps{tc: tc}

	ctx.Step(`^"([^"]*)" submits an? "([^"]*)" log with message "([^"]*)"$`, steps.submitLog)
	ctx.Step(`^"([^"]*)" submits an? "([^"]*)" log tagged "([^"]*)"$`, steps.submitTaggedLog)
	ctx.Step(`^"([^"]*)" submits a log signed with the key of "([^"]*)"$`, steps.submitWithForeignKey)
	ctx.Step(`^a log is submitted without a token$`, steps.submitWithoutToken)
	ctx.Step(`^"([^"]*)" searches logs with level "([^"]*)"$`, steps.searchByLevel)
	ctx.Step(`^"([^"]*)" searches logs tagged "([^"]*)"$`, steps.searchByTags)
	ctx.Step(`^the search should return (\d+) logs?$`, steps.searchShouldReturn)
	ctx.Step(`^every returned log should belong to "([^"]*)"$`, steps.everyLogBelongsTo)
	ctx.Step(`^the response company should be "([^"]*)"$`, steps.responseCompanyShouldBe)
}

type logSteps struct {
	tc TestContext
}

func (s *logSteps) bearer(issuer, signer string) map[string]string {
	claims := testutil.LogClaims(s.tc.CompanyName(issuer), time.Now(), 5*time.Minute)
	token := s.tc.CompanyKey(signer).SignLogToken(s.tc.T(), claims)
	return map[string]string{"Authorization": "Bearer " + token}
}

func logBody(level, message string, tags []string) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"host":      "web-01",
		"service":   "checkout",
		"level":     level,
		"message":   message,
		"user":      map[string]any{"id": "u-1", "name": "alice"},
		"tags":      tags,
	}
}

func (s *logSteps) submitLog(_ context.Context, label, level, message string) error {
	return s.tc.POSTWithHeaders("/logs", logBody(level, message, nil), s.bearer(label, label))
}

func (s *logSteps) submitTaggedLog(_ context.Context, label, level, tags string) error {
	return s.tc.POSTWithHeaders("/logs", logBody(level, "tagged", strings.Split(tags, ",")), s.bearer(label, label))
}

func (s *logSteps) submitWithForeignKey(_ context.Context, label, signer string) error {
	return s.tc.POSTWithHeaders("/logs", logBody("INFO", "forged", nil), s.bearer(label, signer))
}

func (s *logSteps) submitWithoutToken(_ context.Context) error {
	return s.tc.POSTWithHeaders("/logs", logBody("INFO", "anonymous", nil), nil)
}

func (s *logSteps) searchByLevel(_ context.Context, label, level string) error {
	return s.tc.POSTWithHeaders("/logs/search", map[string]any{"level": level}, s.bearer(label, label))
}

func (s *logSteps) searchByTags(_ context.Context, label, tags string) error {
	return s.tc.POSTWithHeaders("/logs/search", map[string]any{"tags": strings.Split(tags, ",")}, s.bearer(label, label))
}

type searchResponse struct {
	Logs []struct {
		CompanyName string `json:"company_name"`
	} `json:"logs"`
	Count int `json:"count"`
}

func (s *logSteps) decodeSearch() (*searchResponse, error) {
	var resp searchResponse
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &resp, nil
}

func (s *logSteps) searchShouldReturn(_ context.Context, n int) error {
	resp, err := s.decodeSearch()
	if err != nil {
		return err
	}
	if resp.Count != n || len(resp.Logs) != n {
		return fmt.Errorf("expected %d logs but got count=%d len=%d", n, resp.Count, len(resp.Logs))
	}
	return nil
}

func (s *logSteps) everyLogBelongsTo(_ context.Context, label string) error {
	resp, err := s.decodeSearch()
	if err != nil {
		return err
	}
	want := s.tc.CompanyName(label)
	for _, l := range resp.Logs {
		if l.CompanyName != want {
			return fmt.Errorf("found log for %q in %q search", l.CompanyName, want)
		}
	}
	return nil
}

func (s *logSteps) responseCompanyShouldBe(_ context.Context, label string) error {
	var body struct {
		Company string `json:"company"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if want := s.tc.CompanyName(label); body.Company != want {
		return fmt.Errorf("expected company %q but got %q", want, body.Company)
	}
	return nil
}
