package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAutoMigrateAllowed(t *testing.T) {
	tests := []struct {
		env     string
		allowed bool
	}{
		{env: "", allowed: true},
		{env: "dev", allowed: true},
		{env: "development", allowed: true},
		{env: "  Local  ", allowed: true},
		{env: "TEST", allowed: true},
		{env: "testing", allowed: true},
		{env: "production", allowed: false},
		{env: " Production ", allowed: false},
		{env: "staging", allowed: false},
		{env: "qa", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			err := ValidateAutoMigrateAllowed(tt.env)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrAutoMigrateForbidden)
			assert.Contains(t, err.Error(), AppEnvKey)
		})
	}
}

func TestLoadApplicationConfiguration_RefusesAutoMigrateInProduction(t *testing.T) {
	t.Setenv("SKIP_DOTENV", "true")
	t.Setenv(AppEnvKey, "production")

	cfg, err := LoadApplicationConfiguration(t.Context(), quietLogger(), true)

	assert.ErrorIs(t, err, ErrAutoMigrateForbidden)
	assert.Nil(t, cfg)
}

func TestGetAppEnv(t *testing.T) {
	t.Setenv(AppEnvKey, "  Staging ")
	assert.Equal(t, "staging", GetAppEnv())
}

func TestDotenvFiles(t *testing.T) {
	assert.Equal(t, []string{".env"}, dotenvFiles(""))
	assert.Equal(t, []string{".env"}, dotenvFiles(" , "))
	assert.Equal(t, []string{".env.local", ".env"}, dotenvFiles(".env.local, .env"))
}

func TestInitializeEnvFile_LoadsWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.env")
	require.NoError(t, os.WriteFile(path, []byte("WAITLIST_RATE_LIMIT_REQUESTS=7\nPOSTGRES_HOST=from-file\n"), 0o600))

	t.Setenv("SKIP_DOTENV", "")
	t.Setenv("DOTENV_FILES", path)
	t.Setenv("POSTGRES_HOST", "from-env")
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "")
	require.NoError(t, os.Unsetenv("WAITLIST_RATE_LIMIT_REQUESTS"))

	InitializeEnvFile(quietLogger())

	assert.Equal(t, "from-env", os.Getenv("POSTGRES_HOST"))
	assert.Equal(t, 7, NewAppConfig().WaitlistRateLimitRequests)
}

func TestInitializeEnvFile_Skipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waitlist.env")
	require.NoError(t, os.WriteFile(path, []byte("WAITLIST_RATE_LIMIT_REQUESTS=7\n"), 0o600))

	t.Setenv("SKIP_DOTENV", "true")
	t.Setenv("DOTENV_FILES", path)
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "")
	require.NoError(t, os.Unsetenv("WAITLIST_RATE_LIMIT_REQUESTS"))

	InitializeEnvFile(quietLogger())

	_, set := os.LookupEnv("WAITLIST_RATE_LIMIT_REQUESTS")
	assert.False(t, set)
}
