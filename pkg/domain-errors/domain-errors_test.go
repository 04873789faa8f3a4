package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsFirstDomainCode(t *testing.T) {
	cases := []struct {
		name  string
		cause error
		want  Code
	}{
		{"invalid key survives two wraps", New(CodeInvalidKey, "Invalid public key: trailing data after PEM block"), CodeInvalidKey},
		{"alerting failure survives two wraps", New(CodeAlertingFailed, "alert delivery failed"), CodeAlertingFailed},
		{"plain cause takes the first wrap code", errors.New("dial tcp: connection refused"), CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			once := Wrap(tc.cause, CodeValidation, "company registration rejected")
			twice := Wrap(once, CodeInternal, "register company")

			assert.Equal(t, tc.want, CodeOf(twice))
			assert.True(t, HasCode(twice, tc.want))
			assert.Equal(t, "register company", twice.Error())
			assert.ErrorIs(t, twice, tc.cause)
		})
	}
}

func TestIsComparesCodesNotMessages(t *testing.T) {
	expired := New(CodeTokenExpired, "Token has expired.")

	assert.False(t, errors.Is(expired, &Error{Code: CodeUnauthorized}),
		"an expired token is its own code, not a generic unauthorized")
	assert.True(t, errors.Is(expired, &Error{Code: CodeTokenExpired, Message: "different text"}))
	assert.True(t, errors.Is(fmt.Errorf("verify log token: %w", expired), &Error{Code: CodeTokenExpired}))
	assert.False(t, errors.Is(expired, errors.New("Token has expired.")))
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Invalid PEM format", New(CodeInvalidFormat, "Invalid PEM format").Error())
	assert.Equal(t, "wrong_purpose", (&Error{Code: CodeWrongPurpose}).Error())
}

func TestCodeOf(t *testing.T) {
	inner := New(CodeTooLarge, "request body exceeds 1024 bytes")

	var e *Error
	require.ErrorAs(t, fmt.Errorf("decode: %w", inner), &e)
	assert.Equal(t, CodeTooLarge, CodeOf(fmt.Errorf("decode: %w", inner)))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, HasCode(nil, CodeNotFound))
}
