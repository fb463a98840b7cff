package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHSTSHeader(t *testing.T) {
	tests := []struct {
		name       string
		appEnv     string
		enabled    string
		maxAge     string
		subdomains string
		want       string
	}{
		{name: "off outside production", appEnv: "development", want: ""},
		{name: "on in production", appEnv: "production", want: "max-age=31536000; includeSubDomains"},
		{name: "forced on", appEnv: "staging", enabled: "true", maxAge: "600", want: "max-age=600; includeSubDomains"},
		{name: "forced off in production", appEnv: "prod", enabled: "false", want: ""},
		{name: "no subdomains", appEnv: "production", subdomains: "false", want: "max-age=31536000"},
		{name: "bad max age keeps default", appEnv: "production", maxAge: "-5", want: "max-age=31536000; includeSubDomains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("HSTS_ENABLED", tt.enabled)
			t.Setenv("HSTS_MAX_AGE", tt.maxAge)
			t.Setenv("HSTS_INCLUDE_SUBDOMAINS", tt.subdomains)

			assert.Equal(t, tt.want, hstsHeader())
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	assert.Nil(t, parseTrustedProxies(""))
	assert.Nil(t, parseTrustedProxies(" , "))
	assert.Equal(t, []string{"0.0.0.0/0", "::/0"}, parseTrustedProxies(" * "))
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, parseTrustedProxies("10.0.0.0/8, 192.168.1.1"))
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	t.Setenv("HSTS_ENABLED", "true")
	rs := newTestRouterService(t)
	mountTestController(rs)

	plain := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(plain, httptest.NewRequest(http.MethodGet, "/ip", nil))
	assert.Equal(t, "nosniff", plain.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, plain.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	proxied := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(proxied, req)
	assert.NotEmpty(t, proxied.Header().Get("Strict-Transport-Security"))
}

func TestCorrelationID_EchoedOrGenerated(t *testing.T) {
	rs := newTestRouterService(t)
	mountTestController(rs)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Correlation-ID", "signup-123")
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	assert.Equal(t, "signup-123", w.Header().Get("X-Correlation-ID"))

	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ip", nil))
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))

	// Unmatched routes still carry one, so 404s can be traced.
	w = httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
	assert.Equal(t, 2, retryAfterSeconds(1500*time.Millisecond))
}
