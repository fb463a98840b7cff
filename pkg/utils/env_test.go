package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvTrimmedOrDefault(t *testing.T) {
	t.Setenv("UTILS_TEST_VALUE", "  value  ")
	assert.Equal(t, "value", GetEnvTrimmedOrDefault("UTILS_TEST_VALUE", "fallback"))

	t.Setenv("UTILS_TEST_VALUE", "   ")
	assert.Equal(t, "fallback", GetEnvTrimmedOrDefault("UTILS_TEST_VALUE", "fallback"))
}

func TestGetEnvPositiveInt(t *testing.T) {
	cases := map[string]int{
		"":     7,
		"12":   12,
		" 3 ":  3,
		"0":    7,
		"-4":   7,
		"nope": 7,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("UTILS_TEST_INT", raw)
			assert.Equal(t, want, GetEnvPositiveInt("UTILS_TEST_INT", 7))
		})
	}
}

func TestOTelServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, DefaultServiceName, OTelServiceName())

	t.Setenv("OTEL_SERVICE_NAME", " signup ")
	assert.Equal(t, "signup", OTelServiceName())
}

func TestIsTracingEnabled(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	assert.True(t, IsTracingEnabled())

	t.Setenv("OTEL_TRACES_ENABLED", "maybe")
	assert.False(t, IsTracingEnabled())

	t.Setenv("OTEL_TRACES_ENABLED", "")
	assert.False(t, IsTracingEnabled())
}

func TestGetEnvPositiveDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":      time.Minute,
		"30s":   30 * time.Second,
		" 2m ":  2 * time.Minute,
		"0s":    time.Minute,
		"-5s":   time.Minute,
		"later": time.Minute,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("UTILS_TEST_DURATION", raw)
			assert.Equal(t, want, GetEnvPositiveDuration("UTILS_TEST_DURATION", time.Minute))
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("UTILS_TEST_BOOL", "")
	assert.True(t, GetEnvBool("UTILS_TEST_BOOL", true))

	t.Setenv("UTILS_TEST_BOOL", "false")
	assert.False(t, GetEnvBool("UTILS_TEST_BOOL", true))

	t.Setenv("UTILS_TEST_BOOL", " 1 ")
	assert.True(t, GetEnvBool("UTILS_TEST_BOOL", false))

	t.Setenv("UTILS_TEST_BOOL", "sometimes")
	assert.False(t, GetEnvBool("UTILS_TEST_BOOL", false))
}
