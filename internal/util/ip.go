// Package util holds small request helpers.
package util

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// GetClientIP returns the address audit entries are attributed to: the
// first valid X-Forwarded-For hop, then X-Real-IP, then the peer address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := validIP(first); ok {
			return ip
		}
	}
	if ip, ok := validIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func validIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
