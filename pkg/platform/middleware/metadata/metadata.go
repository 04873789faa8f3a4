// Package metadata resolves the client address of a request, honouring
// forwarding headers only from trusted proxies.
package metadata

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"logdata/pkg/requestcontext"
)

// MaxXFFHeaderLength caps X-Forwarded-For before it is parsed.
const MaxXFFHeaderLength = 500

type Config struct {
	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Empty means the
	// headers are never trusted.
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies accepts CIDRs or bare addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			addr, err := netip.ParseAddr(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

type Middleware struct {
	config Config
}

func NewMiddleware(cfg Config) *Middleware {
	return &Middleware{config: cfg}
}

// Handler stores the resolved client IP in the request context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIP(r.Context(), m.clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	remoteIP := remoteAddrIP(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}
	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && validIP(xri) {
			return xri
		}
		return remoteIP
	}
	if len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	// first hop is the original client
	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if !validIP(first) {
		return remoteIP
	}
	return first
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteAddrIP(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.Trim(remoteAddr, "[]")
	}
	return host
}

func validIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}
