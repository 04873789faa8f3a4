// Package privacy reduces personal data to forms that are safe to log.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates an address to its network prefix: /24 for IPv4,
// /48 for IPv6. Returns "unknown" for empty input and "invalid" when the
// address does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// RemoteIP strips the port from an http.Request RemoteAddr.
func RemoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// MaskEmail keeps the first character of the local part and the full domain,
// e.g. "jane.doe@acme.io" -> "j***@acme.io".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "invalid"
	}
	return local[:1] + "***@" + domain
}
