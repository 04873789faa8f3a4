//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"logdata/internal/platform/config"
	"logdata/pkg/testutil"
)

// TestContext holds state between test steps
type TestContext struct {
	BaseURL            string
	RegistrationSecret string
	HTTPClient         *http.Client
	LastResponse       *http.Response
	LastResponseBody   []byte

	t         testing.TB
	runSuffix string
	companies map[string]string
}

// NewTestContext reads BASE_URL and REGISTRATION_SECRET, defaulting to a
// local dev server.
func NewTestContext(t testing.TB) *TestContext {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	secret := os.Getenv("REGISTRATION_SECRET")
	if secret == "" {
		secret = config.DevRegistrationSecret
	}

	return &TestContext{
		BaseURL:            baseURL,
		RegistrationSecret: secret,
		HTTPClient:         &http.Client{Timeout: 10 * time.Second},
		t:                  t,
		companies:          map[string]string{},
	}
}

// Reset clears per-scenario state. Company names get a fresh suffix so
// scenarios can run against a persistent store.
func (tc *TestContext) Reset() {
	tc.LastResponse = nil
	tc.LastResponseBody = nil
	tc.runSuffix = uuid.NewString()[:8]
	tc.companies = map[string]string{}
}

// CompanyName maps a feature-file label to the name registered for this scenario.
func (tc *TestContext) CompanyName(label string) string {
	if name, ok := tc.companies[label]; ok {
		return name
	}
	name := label + "-" + tc.runSuffix
	tc.companies[label] = name
	return name
}

// CompanyKey returns the signing key used for label within this test run.
func (tc *TestContext) CompanyKey(label string) *testutil.TenantKey {
	return testutil.KeyFor(tc.t, label)
}

func (tc *TestContext) T() testing.TB {
	return tc.t
}

func (tc *TestContext) GetRegistrationSecret() string {
	return tc.RegistrationSecret
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body any) error {
	return tc.POSTWithHeaders(path, body, nil)
}

// POSTWithHeaders makes a POST request with optional headers
func (tc *TestContext) POSTWithHeaders(path string, body any, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tc.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a field from the JSON response
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}

	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err == nil {
		if _, ok := data[text]; ok {
			return true
		}
	}
	return false
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}
