package common

import (
	"net"
	"net/http"
	"strings"
)

// TerminalHeader identifies the till a request came from. Several tills often
// share one NAT address, so it is preferred over the IP when bucketing clients.
const TerminalHeader = "X-Terminal-ID"

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ClientKey names the caller for rate limiting: "t:<terminal>" when the
// terminal header is present, otherwise "ip:<client ip>".
func ClientKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	if terminal := strings.TrimSpace(r.Header.Get(TerminalHeader)); terminal != "" {
		return "t:" + terminal
	}
	return "ip:" + ClientIP(r)
}
