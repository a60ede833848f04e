package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIP sets r.RemoteAddr to the client address seen by the outermost of
// trustedHops reverse proxies. Each trusted proxy appends the address it
// received from to X-Forwarded-For, so the client is the entry trustedHops
// places from the right. Entries further left are client supplied and never
// used. With trustedHops == 0 forwarded headers are ignored.
func RealIP(trustedHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if trustedHops <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip, ok := forwardedClient(r.Header.Values("X-Forwarded-For"), trustedHops); ok {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClient(headers []string, trustedHops int) (string, bool) {
	var hops []string
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			if part = strings.TrimSpace(part); part != "" {
				hops = append(hops, part)
			}
		}
	}
	if len(hops) == 0 {
		return "", false
	}
	i := len(hops) - trustedHops
	if i < 0 {
		i = 0
	}
	ip := net.ParseIP(hops[i])
	if ip == nil {
		return "", false
	}
	return ip.String(), true
}
