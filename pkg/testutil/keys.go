package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TenantKey is an RSA keypair standing in for a tenant's signing key.
type TenantKey struct {
	Private   *rsa.PrivateKey
	PublicPEM string
}

var (
	keysMu sync.Mutex
	keys   = map[string]*TenantKey{}
)

// KeyFor returns a 2048-bit keypair for label, generating it on first use.
// Keys are cached per test binary because RSA generation is slow.
func KeyFor(t testing.TB, label string) *TenantKey {
	t.Helper()

	keysMu.Lock()
	defer keysMu.Unlock()

	if k, ok := keys[label]; ok {
		return k
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	k := &TenantKey{
		Private:   priv,
		PublicPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}
	keys[label] = k
	return k
}

// SignLogToken signs claims with RS256 using the tenant's private key.
func (k *TenantKey) SignLogToken(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(k.Private)
	if err != nil {
		t.Fatalf("sign log token: %v", err)
	}
	return signed
}

// LogClaims returns a claim set issued by tenant that expires after ttl from now.
func LogClaims(tenant string, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"iss": tenant,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
}
