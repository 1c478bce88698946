package security

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"

	"droidmon/app/internal/logger"
	"droidmon/app/internal/ratelimit"

	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; the control API takes no uploads
const maxBodyBytes = 1 << 20

// SecureHeaders adds security headers to API responses
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// LoopbackOnly rejects requests whose peer is not a loopback address.
// Forwarding headers are ignored: only the socket peer counts.
func LoopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !IsLoopback(ip) {
			logger.Warn("rejected non-loopback request",
				zap.String("remote", ip),
				zap.String("path", r.URL.Path))
			writeError(w, http.StatusForbidden, "control API is only available on loopback")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits every request passing through next to one shared bucket
// named key
func RateLimit(l *ratelimit.Limiter, key string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(key) {
			secs := int(math.Ceil(l.RetryAfter(key).Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", fmt.Sprint(secs))
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of the socket peer address
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// IsLoopback reports whether ip is a loopback address
func IsLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
