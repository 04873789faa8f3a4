// Package pubkey validates tenant public keys supplied as PEM text.
package pubkey

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	dErrors "logdata/pkg/domain-errors"
)

const (
	beginMarker = "-----BEGIN PUBLIC KEY-----"
	endMarker   = "-----END PUBLIC KEY-----"

	blockType = "PUBLIC KEY"
)

// Validate checks that text is a PEM-encoded PKIX public key and returns the
// parsed key. Text that is not delimited by the public-key markers fails with
// CodeInvalidFormat; well-delimited text that does not decode fails with
// CodeInvalidKey. Certificates and private keys never pass the delimiter check.
func Validate(text string) (crypto.PublicKey, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, beginMarker) || !strings.HasSuffix(trimmed, endMarker) {
		return nil, dErrors.New(dErrors.CodeInvalidFormat, "Invalid PEM format")
	}

	block, rest := pem.Decode([]byte(trimmed))
	if block == nil {
		return nil, dErrors.New(dErrors.CodeInvalidKey, "Invalid public key: malformed PEM block")
	}
	if block.Type != blockType {
		return nil, dErrors.New(dErrors.CodeInvalidKey, "Invalid public key: unexpected PEM block "+block.Type)
	}
	// the stored text must be exactly one key
	if len(bytes.TrimSpace(rest)) != 0 {
		return nil, dErrors.New(dErrors.CodeInvalidKey, "Invalid public key: trailing data after PEM block")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidKey, "Invalid public key: "+err.Error())
	}
	return key, nil
}

// ValidateRSA validates text and additionally requires an RSA key, since
// log-submission tokens are always RS256.
func ValidateRSA(text string) (*rsa.PublicKey, error) {
	key, err := Validate(text)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidKey, fmt.Sprintf("Invalid public key: unsupported key type %T, RSA required", key))
	}
	return rsaKey, nil
}

// Encode renders key as a PKIX "PUBLIC KEY" PEM block.
func Encode(key crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})), nil
}
