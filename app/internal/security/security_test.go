package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"droidmon/app/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecureHeaders_SetsAllHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/api/monitoring", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("next handler not called, code %d", rec.Code)
	}
}

func TestClientIP_RemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	if got := ClientIP(req); got != "127.0.0.1" {
		t.Errorf("got %q", got)
	}
}

func TestClientIP_RemoteAddr_NoPort(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "::1"
	if got := ClientIP(req); got != "::1" {
		t.Errorf("got %q", got)
	}
}

func TestClientIP_IgnoresXForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	if got := ClientIP(req); got != "10.0.0.5" {
		t.Errorf("got %q", got)
	}
}

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1":   true,
		"127.8.9.10":  true,
		"::1":         true,
		"10.0.0.5":    false,
		"192.168.1.1": false,
		"":            false,
		"garbage":     false,
	}
	for ip, want := range tests {
		if got := IsLoopback(ip); got != want {
			t.Errorf("IsLoopback(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestLoopbackOnly(t *testing.T) {
	h := LoopbackOnly(okHandler())

	req := httptest.NewRequest("GET", "/api/live", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("loopback request got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/live", nil)
	req.RemoteAddr = "192.168.1.20:40000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("remote request got %d, want 403", rec.Code)
	}
}

func TestRateLimit_ExhaustsTokens(t *testing.T) {
	l := ratelimit.New(ratelimit.Config{PerMinute: 2})
	defer l.Stop()
	h := RateLimit(l, "collect", okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/collect", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/collect", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
