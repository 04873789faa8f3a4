package jwttoken

import (
	"context"
	"crypto/rsa"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"logdata/internal/platform/tracer"
	"logdata/internal/pubkey"
	dErrors "logdata/pkg/domain-errors"
	"logdata/pkg/requestcontext"
)

// KeyResolver returns the public key text on record for a tenant.
type KeyResolver interface {
	LookupPublicKey(ctx context.Context, tenantName string) (string, error)
}

// Stage is a step of log-token verification. A token moves
// Received -> IssuerExtracted -> KeyResolved -> Accepted, or stops at Rejected.
type Stage string

const (
	StageReceived        Stage = "received"
	StageIssuerExtracted Stage = "issuer_extracted"
	StageKeyResolved     Stage = "key_resolved"
	StageAccepted        Stage = "accepted"
	StageRejected        Stage = "rejected"
)

const (
	reasonMalformed     = "Invalid token."
	reasonMissingIssuer = `Invalid token: missing "iss" field.`
	reasonBadSignature  = "Invalid token"
	reasonExpired       = "Token has expired."
)

// Rejection explains why a token was refused. Cause is for logs only and must
// never reach the client.
type Rejection struct {
	At     Stage
	Code   dErrors.Code
	Reason string
	Cause  error
}

// Decision is the result of verifying a log-submission token: either accepted
// with the verified claim set, or rejected.
type Decision struct {
	Issuer    string
	Claims    jwt.MapClaims
	Rejection *Rejection
}

func (d Decision) Accepted() bool {
	return d.Rejection == nil
}

// Err converts a rejection into a domain error carrying the client-facing reason.
func (d Decision) Err() error {
	if d.Rejection == nil {
		return nil
	}
	// Built directly so a domain code inside Cause cannot replace the generic one.
	return &dErrors.Error{Code: d.Rejection.Code, Message: d.Rejection.Reason, Err: d.Rejection.Cause}
}

func rejected(at Stage, code dErrors.Code, reason string, cause error) Decision {
	return Decision{Rejection: &Rejection{At: at, Code: code, Reason: reason, Cause: cause}}
}

// OutcomeObserver records verification results. Implemented by metrics.
type OutcomeObserver interface {
	ObserveLogTokenOutcome(stage Stage, code string)
}

// LogTokenVerifier verifies tenant-signed RS256 log-submission tokens.
type LogTokenVerifier struct {
	resolver KeyResolver
	tracer   tracer.Tracer
	logger   *slog.Logger
	observer OutcomeObserver
}

type VerifierOption func(*LogTokenVerifier)

func WithTracer(t tracer.Tracer) VerifierOption {
	return func(v *LogTokenVerifier) {
		v.tracer = t
	}
}

func WithLogger(logger *slog.Logger) VerifierOption {
	return func(v *LogTokenVerifier) {
		v.logger = logger
	}
}

func WithOutcomeObserver(o OutcomeObserver) VerifierOption {
	return func(v *LogTokenVerifier) {
		v.observer = o
	}
}

func NewLogTokenVerifier(resolver KeyResolver, opts ...VerifierOption) *LogTokenVerifier {
	v := &LogTokenVerifier{
		resolver: resolver,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the two-phase check. The issuer read in the first phase is used
// only to choose which key to fetch; trust comes from the signature check.
func (v *LogTokenVerifier) Verify(ctx context.Context, tokenString string) Decision {
	ctx, span := v.tracer.Start(ctx, tracer.SpanLogTokenVerify)

	decision := v.verify(ctx, tokenString)

	stage, code := StageAccepted, "ok"
	if !decision.Accepted() {
		stage, code = decision.Rejection.At, string(decision.Rejection.Code)
		v.logger.DebugContext(ctx, "log token rejected",
			"stage", stage,
			"reason", decision.Rejection.Reason,
			"cause", decision.Rejection.Cause,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if v.observer != nil {
		v.observer.ObserveLogTokenOutcome(stage, code)
	}
	span.SetAttributes(tracer.String(tracer.AttrOutcome, string(stage)))
	span.End(decision.Err())
	return decision
}

func (v *LogTokenVerifier) verify(ctx context.Context, tokenString string) Decision {
	issuer, rej := extractIssuer(tokenString)
	if rej != nil {
		return Decision{Rejection: rej}
	}

	key, rej := v.resolveKey(ctx, issuer)
	if rej != nil {
		return Decision{Issuer: issuer, Rejection: rej}
	}

	claims, rej := verifySignature(tokenString, key, requestcontext.Now(ctx))
	if rej != nil {
		return Decision{Issuer: issuer, Rejection: rej}
	}
	return Decision{Issuer: issuer, Claims: claims}
}

// extractIssuer reads iss without verifying the signature.
func extractIssuer(tokenString string) (string, *Rejection) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", &Rejection{At: StageReceived, Code: dErrors.CodeUnauthorized, Reason: reasonMalformed, Cause: err}
	}

	raw, present := claims["iss"]
	if !present {
		return "", &Rejection{At: StageReceived, Code: dErrors.CodeUnauthorized, Reason: reasonMissingIssuer}
	}
	issuer, ok := raw.(string)
	if !ok {
		return "", &Rejection{At: StageReceived, Code: dErrors.CodeUnauthorized, Reason: reasonMalformed, Cause: errors.New("iss is not a string")}
	}
	if issuer == "" {
		return "", &Rejection{At: StageReceived, Code: dErrors.CodeUnauthorized, Reason: reasonMissingIssuer}
	}
	return issuer, nil
}

// resolveKey folds every directory or key failure into the same generic
// rejection so callers cannot probe which tenant names exist.
func (v *LogTokenVerifier) resolveKey(ctx context.Context, issuer string) (*rsa.PublicKey, *Rejection) {
	ctx, span := v.tracer.Start(ctx, tracer.SpanLogTokenKey, tracer.String(tracer.AttrTenant, tracer.HashValue(issuer)))

	text, err := v.resolver.LookupPublicKey(ctx, issuer)
	if err != nil {
		span.End(err)
		return nil, &Rejection{At: StageIssuerExtracted, Code: dErrors.CodeUnauthorized, Reason: reasonMalformed, Cause: err}
	}
	key, err := pubkey.ValidateRSA(text)
	if err != nil {
		span.End(err)
		return nil, &Rejection{At: StageIssuerExtracted, Code: dErrors.CodeUnauthorized, Reason: reasonMalformed, Cause: err}
	}
	span.End(nil)
	return key, nil
}

// verifySignature re-parses the token with the tenant key. The algorithm is
// pinned to RS256 rather than taken from the token header.
func verifySignature(tokenString string, key *rsa.PublicKey, now time.Time) (jwt.MapClaims, *Rejection) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &Rejection{At: StageKeyResolved, Code: dErrors.CodeTokenExpired, Reason: reasonExpired, Cause: err}
		}
		return nil, &Rejection{At: StageKeyResolved, Code: dErrors.CodeUnauthorized, Reason: reasonBadSignature, Cause: err}
	}
	if !parsed.Valid {
		return nil, &Rejection{At: StageKeyResolved, Code: dErrors.CodeUnauthorized, Reason: reasonBadSignature}
	}
	return claims, nil
}

// Authenticate adapts Verify for the HTTP auth middleware.
func (v *LogTokenVerifier) Authenticate(ctx context.Context, tokenString string) (*requestcontext.Submitter, error) {
	decision := v.Verify(ctx, tokenString)
	if !decision.Accepted() {
		return nil, decision.Err()
	}
	return &requestcontext.Submitter{
		TenantName: decision.Issuer,
		Claims:     decision.Claims,
	}, nil
}
