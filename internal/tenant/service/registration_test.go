package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"logdata/internal/alerting"
	jwttoken "logdata/internal/jwt_token"
	"logdata/internal/pubkey"
	"logdata/internal/tenant/models"
	"logdata/internal/tenant/service/mocks"
	tenantstore "logdata/internal/tenant/store/tenant"
	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/requestcontext"
	"logdata/pkg/testutil"
)

const testSecret = "registration-test-secret"

type RegistrationSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mailer       *mocks.MockMailer
	tokens       *jwttoken.RegistrationTokenService
	directory    *Directory
	registration *Registration
	now          time.Time
	acmeKey      string
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mailer = mocks.NewMockMailer(s.ctrl)
	tokens, err := jwttoken.NewRegistrationTokenService(testSecret, 0)
	s.Require().NoError(err)
	s.tokens = tokens
	s.directory = NewDirectory(tenantstore.NewInMemory())
	s.registration = NewRegistration(s.directory, s.tokens, s.mailer,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.acmeKey = testutil.KeyFor(s.T(), "acme").PublicPEM
}

func (s *RegistrationSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RegistrationSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *RegistrationSuite) token() string {
	token, err := s.tokens.Issue(s.ctx(), "founder@acme.io")
	s.Require().NoError(err)
	return token
}

func (s *RegistrationSuite) request(token string) *models.RegisterCompanyRequest {
	return &models.RegisterCompanyRequest{
		Token:            token,
		CompanyName:      "Acme",
		CompanyPublicKey: s.acmeKey,
		AlertEmails:      []string{"ops@acme.io", "dev@acme.io"},
	}
}

var tokenLine = regexp.MustCompile(`(?m)^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

func (s *RegistrationSuite) TestRequestRegistrationMailsUsableToken() {
	var sent alerting.Message
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg alerting.Message) error {
		sent = msg
		return nil
	})

	err := s.registration.RequestRegistration(s.ctx(), &models.RegistrationTokenRequest{Email: " founder@acme.io "})
	s.Require().NoError(err)

	s.Equal("founder@acme.io", sent.Recipient)
	s.Equal("Your registration token", sent.Subject)
	s.Contains(sent.Body, "Valid for 15 minutes.")

	token := tokenLine.FindString(sent.Body)
	s.Require().NotEmpty(token)
	claims, err := s.tokens.Verify(s.ctx(), token)
	s.Require().NoError(err)
	s.Equal("founder@acme.io", claims.Email)
}

func (s *RegistrationSuite) TestRequestRegistrationRejectsBadEmail() {
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	err := s.registration.RequestRegistration(s.ctx(), &models.RegistrationTokenRequest{Email: "not-an-email"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *RegistrationSuite) TestRequestRegistrationMailFailure() {
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("relay down"))

	err := s.registration.RequestRegistration(s.ctx(), &models.RegistrationTokenRequest{Email: "founder@acme.io"})
	s.True(dErrors.HasCode(err, dErrors.CodeAlertingFailed))
}

func (s *RegistrationSuite) TestRegisterCompany() {
	tenant, err := s.registration.RegisterCompany(s.ctx(), s.request(s.token()))
	s.Require().NoError(err)
	s.False(tenant.ID.IsNil())
	s.Equal("Acme", tenant.Name)
	s.Equal(s.now, tenant.CreatedAt)

	key, err := s.directory.LookupPublicKey(s.ctx(), "Acme")
	s.Require().NoError(err)
	s.Equal(s.acmeKey, key)
}

func (s *RegistrationSuite) TestRegisterCompanyTwiceConflicts() {
	_, err := s.registration.RegisterCompany(s.ctx(), s.request(s.token()))
	s.Require().NoError(err)

	_, err = s.registration.RegisterCompany(s.ctx(), s.request(s.token()))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("Company already exists", err.Error())
}

func (s *RegistrationSuite) TestRegisterCompanyTokenFailures() {
	expired := s.token()
	s.now = s.now.Add(16 * time.Minute)

	_, err := s.registration.RegisterCompany(s.ctx(), s.request(expired))
	s.True(dErrors.HasCode(err, dErrors.CodeTokenExpired))
	s.Equal("Token has expired.", err.Error())

	wrongPurpose := jwt.NewWithClaims(jwt.SigningMethodHS256, jwttoken.RegistrationClaims{
		Email:   "founder@acme.io",
		Purpose: "reset_password",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
		},
	})
	signed, err := wrongPurpose.SignedString([]byte(testSecret))
	s.Require().NoError(err)
	_, err = s.registration.RegisterCompany(s.ctx(), s.request(signed))
	s.True(dErrors.HasCode(err, dErrors.CodeWrongPurpose))

	_, err = s.registration.RegisterCompany(s.ctx(), s.request("garbage"))
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal("Invalid token.", err.Error())
}

func (s *RegistrationSuite) TestRegisterCompanyKeyFailures() {
	req := s.request(s.token())
	req.CompanyPublicKey = "ssh-rsa AAAA"
	_, err := s.registration.RegisterCompany(s.ctx(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidFormat))
	s.Equal("Invalid PEM format", err.Error())

	req = s.request(s.token())
	req.CompanyPublicKey = "-----BEGIN PUBLIC KEY-----\nbm90IGEga2V5\n-----END PUBLIC KEY-----"
	_, err = s.registration.RegisterCompany(s.ctx(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidKey))
	s.Contains(err.Error(), "Invalid public key")

	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)
	ecPEM, err := pubkey.Encode(&ec.PublicKey)
	s.Require().NoError(err)
	req = s.request(s.token())
	req.CompanyPublicKey = ecPEM
	_, err = s.registration.RegisterCompany(s.ctx(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidKey))

	_, err = s.directory.GetTenant(s.ctx(), "Acme")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "no record on failed registration")
}

func (s *RegistrationSuite) TestRegisterCompanyValidation() {
	req := s.request(s.token())
	req.AlertEmails = []string{"ops@acme.io", "nope"}
	_, err := s.registration.RegisterCompany(s.ctx(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	req = s.request(s.token())
	req.CompanyName = "   "
	_, err = s.registration.RegisterCompany(s.ctx(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
