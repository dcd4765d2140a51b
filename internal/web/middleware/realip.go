package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// proxies is a set of networks whose forwarding headers are trusted.
type proxies []*net.IPNet

// parseProxies parses CIDRs or bare IPs, skipping invalid entries.
func parseProxies(entries []string) proxies {
	var nets proxies
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "entry", entry)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			bits = 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

func (p proxies) contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range p {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// forwardedIP returns the client address announced by a proxy: X-Real-IP
// when valid, else the first hop of X-Forwarded-For.
func forwardedIP(h http.Header) net.IP {
	if rip := strings.TrimSpace(h.Get("X-Real-IP")); rip != "" {
		return net.ParseIP(rip)
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return net.ParseIP(strings.TrimSpace(first))
	}
	return nil
}

// TrustedRealIP replaces RemoteAddr with the client IP announced in
// forwarding headers, but only for requests arriving from a trusted proxy.
// Other requests have RemoteAddr reduced to its host part, so downstream
// rate limiting and logging always see a bare IP.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	nets := parseProxies(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote := hostIP(r.RemoteAddr)
			if nets.contains(remote) {
				if ip := forwardedIP(r.Header); ip != nil {
					remote = ip
				}
			}
			if remote != nil {
				r.RemoteAddr = remote.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hostIP parses an IP address from a host:port string or plain IP.
func hostIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
