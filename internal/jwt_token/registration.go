package jwttoken

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/requestcontext"
)

// PurposeRegisterCompany is the only purpose a registration token may carry.
const PurposeRegisterCompany = "register_company"

// DefaultRegistrationTTL is how long a mailed registration token stays valid.
const DefaultRegistrationTTL = 15 * time.Minute

// RegistrationClaims is the claim set of a self-registration token.
type RegistrationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// RegistrationTokenService issues and verifies HS256 registration tokens
// signed with a process-wide shared secret.
type RegistrationTokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewRegistrationTokenService(secret string, ttl time.Duration) (*RegistrationTokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("registration secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultRegistrationTTL
	}
	return &RegistrationTokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the validity window of issued tokens.
func (s *RegistrationTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a registration token for email. Expiry is computed from the
// request clock so tests can pin it with requestcontext.WithTime.
func (s *RegistrationTokenService) Issue(ctx context.Context, email string) (string, error) {
	now := requestcontext.Now(ctx)
	return s.issue(email, PurposeRegisterCompany, now)
}

func (s *RegistrationTokenService) issue(email, purpose string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RegistrationClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign registration token")
	}
	return signed, nil
}

// Verify checks signature and expiry first, then the purpose tag. A token
// that is both expired and mis-purposed reports expiry.
func (s *RegistrationTokenService) Verify(ctx context.Context, tokenString string) (*RegistrationClaims, error) {
	now := requestcontext.Now(ctx)
	claims := &RegistrationClaims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeTokenExpired, "Token has expired.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "Invalid token.")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid token.")
	}

	if claims.Purpose != PurposeRegisterCompany {
		return nil, dErrors.New(dErrors.CodeWrongPurpose, "Token is not valid for registration.")
	}
	return claims, nil
}
