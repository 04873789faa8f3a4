package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := map[string]string{
		"192.168.1.47":                 "192.168.1.0",
		"127.0.0.1":                    "127.0.0.0",
		"::ffff:10.1.2.3":              "10.1.2.0",
		"2001:db8:85a3::8a2e:370:7334": "2001:0db8:85a3::",
		"fe80::1":                      "fe80:0000:0000::",
		"":                             "unknown",
		"unknown":                      "unknown",
		"not-an-ip":                    "invalid",
		"192.168.1.1:8080":             "invalid",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, AnonymizeIP(input))
		})
	}
}

func TestRemoteIP(t *testing.T) {
	assert.Equal(t, "203.0.113.9", RemoteIP("203.0.113.9:51234"))
	assert.Equal(t, "2001:db8::1", RemoteIP("[2001:db8::1]:443"))
	assert.Equal(t, "203.0.113.9", RemoteIP("203.0.113.9"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@acme.io", MaskEmail("jane.doe@acme.io"))
	assert.Equal(t, "o***@acme.io", MaskEmail("o@acme.io"))
	assert.Equal(t, "invalid", MaskEmail("no-at-sign"))
	assert.Equal(t, "invalid", MaskEmail("@acme.io"))
}
