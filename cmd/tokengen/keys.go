package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"logdata/internal/pubkey"
)

// generateKeyPair returns a PKCS#8 private key and the matching PKIX public
// key, both PEM encoded.
func generateKeyPair(bits int) (privatePEM, publicPEM []byte, err error) {
	if bits < 2048 {
		return nil, nil, fmt.Errorf("key size %d is below 2048 bits", bits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, err
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, err
	}
	public, err := pubkey.Encode(&key.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), []byte(public), nil
}

// signLogToken signs an RS256 log-submission token. A non-positive ttl leaves
// exp out, which the gateway accepts.
func signLogToken(privatePEM []byte, issuer string, ttl time.Duration, extra map[string]any, now time.Time) (string, jwt.MapClaims, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return "", nil, fmt.Errorf("parse private key: %w", err)
	}

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["iss"] = issuer
	claims["iat"] = now.Unix()
	claims["jti"] = uuid.NewString()
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// parseClaims reads "k=v,k2=v2". Reserved claims cannot be overridden.
func parseClaims(s string) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		switch k {
		case "iss", "iat", "exp", "jti":
			return nil, fmt.Errorf("claim %q is set by tokengen", k)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
