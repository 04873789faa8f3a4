package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"logdata/internal/alerting"
	jwttoken "logdata/internal/jwt_token"
	"logdata/internal/logs/models"
	logservice "logdata/internal/logs/service"
	logstore "logdata/internal/logs/store/log"
	tenanthandler "logdata/internal/tenant/handler"
	tenantservice "logdata/internal/tenant/service"
	tenantstore "logdata/internal/tenant/store/tenant"
	"logdata/pkg/platform/middleware/auth"
	"logdata/pkg/testutil"
)

type outbox struct {
	mu   sync.Mutex
	sent []alerting.Message
	fail bool
}

func (o *outbox) Send(_ context.Context, msg alerting.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return errors.New("smtp unavailable")
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []alerting.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]alerting.Message(nil), o.sent...)
}

var tokenLine = regexp.MustCompile(`(?m)^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// GatewaySuite drives the public routes the way a tenant would: register,
// then submit and search logs with tenant-signed tokens.
type GatewaySuite struct {
	suite.Suite
	router http.Handler
	mail   *outbox
	alerts *outbox
	acme   *testutil.TenantKey
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.mail = &outbox{}
	s.alerts = &outbox{}
	s.acme = testutil.KeyFor(s.T(), "gateway-acme")

	tokens, err := jwttoken.NewRegistrationTokenService("gateway-test-secret", 0)
	s.Require().NoError(err)
	directory := tenantservice.NewDirectory(tenantstore.NewInMemory())
	registration := tenantservice.NewRegistration(directory, tokens, s.mail, tenantservice.WithLogger(logger))

	dispatcher := alerting.NewDispatcher(s.alerts, alerting.WithLogger(logger))
	logs := logservice.New(logstore.NewInMemory(), directory, dispatcher, logservice.WithLogger(logger))
	verifier := jwttoken.NewLogTokenVerifier(directory, jwttoken.WithLogger(logger))

	r := chi.NewRouter()
	tenanthandler.New(registration, logger).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogToken(verifier, logger))
		New(logs, logger).Register(r)
	})
	s.router = r
}

func (s *GatewaySuite) do(path, bearer string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *GatewaySuite) register(name string, key *testutil.TenantKey, recipients ...string) {
	rec := s.do("/request_registration", "", map[string]string{"email": "founder@example.com"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	mails := s.mail.messages()
	s.Require().NotEmpty(mails)
	token := tokenLine.FindString(mails[len(mails)-1].Body)
	s.Require().NotEmpty(token)

	rec = s.do("/register_company", "", map[string]any{
		"token":              token,
		"company_name":       name,
		"company_public_key": key.PublicPEM,
		"alert_emails":       recipients,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *GatewaySuite) logToken(key *testutil.TenantKey, issuer string) string {
	return key.SignLogToken(s.T(), testutil.LogClaims(issuer, time.Now(), time.Hour))
}

func errorLog() map[string]any {
	return map[string]any{
		"timestamp": "2026-04-02T08:30:00Z",
		"host":      "web-1",
		"service":   "billing",
		"level":     "ERROR",
		"event":     map[string]any{"type": "charge_failed"},
		"user":      map[string]any{"name": "alice"},
		"message":   "card declined",
		"tags":      []string{"urgent"},
	}
}

func (s *GatewaySuite) TestAcmeErrorLogAlertsItsRecipient() {
	s.register("Acme", s.acme, "ops@acme.com")

	rec := s.do("/logs", s.logToken(s.acme, "Acme"), errorLog())
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.JSONEq(`{"message":"Log received successfully","company":"Acme","alert":"sent"}`, rec.Body.String())

	alerts := s.alerts.messages()
	s.Require().Len(alerts, 1)
	s.Equal("ops@acme.com", alerts[0].Recipient)
	s.Equal("[Acme] ERROR alert from billing", alerts[0].Subject)
	s.Contains(alerts[0].Body, "card declined")
}

func (s *GatewaySuite) TestInfoLogNeedsNoAlert() {
	s.register("Acme", s.acme, "ops@acme.com")
	body := errorLog()
	body["level"] = "INFO"

	rec := s.do("/logs", s.logToken(s.acme, "Acme"), body)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"message":"Log received successfully","company":"Acme","alert":"not_required"}`, rec.Body.String())
	s.Empty(s.alerts.messages())
}

func (s *GatewaySuite) TestAlertFailureIsAccepted() {
	s.register("Acme", s.acme, "ops@acme.com")
	s.alerts.fail = true

	rec := s.do("/logs", s.logToken(s.acme, "Acme"), errorLog())
	s.Equal(http.StatusAccepted, rec.Code)
	s.JSONEq(`{"message":"Log received successfully","company":"Acme","alert":"failed"}`, rec.Body.String())

	rec = s.do("/logs/search", s.logToken(s.acme, "Acme"), map[string]any{})
	s.Require().Equal(http.StatusOK, rec.Code)
	var found models.SearchResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &found))
	s.Equal(1, found.Count)
}

func (s *GatewaySuite) TestTokenSignedByAnotherTenantIsRejected() {
	globex := testutil.KeyFor(s.T(), "gateway-globex")
	s.register("Acme", s.acme, "ops@acme.com")
	s.register("Globex", globex, "ops@globex.com")

	rec := s.do("/logs", s.logToken(globex, "Acme"), errorLog())
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"unauthorized","error_description":"Invalid token"}`, rec.Body.String())
	s.Empty(s.alerts.messages())
}

func (s *GatewaySuite) TestUnknownIssuerLooksLikeAnyBadToken() {
	rec := s.do("/logs", s.logToken(s.acme, "Nobody"), errorLog())
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"unauthorized","error_description":"Invalid token."}`, rec.Body.String())
}

func (s *GatewaySuite) TestMissingBearer() {
	rec := s.do("/logs", "", errorLog())
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *GatewaySuite) TestSearchOnlySeesOwnLogs() {
	globex := testutil.KeyFor(s.T(), "gateway-globex")
	s.register("Acme", s.acme, "ops@acme.com")
	s.register("Globex", globex, "ops@globex.com")

	s.Require().Equal(http.StatusOK, s.do("/logs", s.logToken(s.acme, "Acme"), errorLog()).Code)
	s.Require().Equal(http.StatusOK, s.do("/logs", s.logToken(globex, "Globex"), errorLog()).Code)
	routine := errorLog()
	routine["level"] = "INFO"
	routine["tags"] = []string{"routine"}
	s.Require().Equal(http.StatusOK, s.do("/logs", s.logToken(s.acme, "Acme"), routine).Code)

	rec := s.do("/logs/search", s.logToken(s.acme, "Acme"), map[string]any{"tags": []string{"urgent"}})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var found models.SearchResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &found))
	s.Require().Equal(1, found.Count)
	s.Equal("Acme", found.Logs[0].TenantName)
	s.Equal([]string{"urgent"}, found.Logs[0].Log.Tags)
}

func (s *GatewaySuite) TestSearchWithoutBodyReturnsOwnLogs() {
	s.register("Acme", s.acme, "ops@acme.com")
	s.Require().Equal(http.StatusOK, s.do("/logs", s.logToken(s.acme, "Acme"), errorLog()).Code)

	req := httptest.NewRequest(http.MethodPost, "/logs/search", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+s.logToken(s.acme, "Acme"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var found models.SearchResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &found))
	s.Equal(1, found.Count)
}

func (s *GatewaySuite) TestInvalidLogBody() {
	s.register("Acme", s.acme, "ops@acme.com")

	rec := s.do("/logs", s.logToken(s.acme, "Acme"), map[string]any{"message": "no level"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":"validation_error","error_description":"level is required"}`, rec.Body.String())
}
