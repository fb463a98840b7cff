package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey = "APP_ENV"

	EnvDevelopment = "development"
)

// ErrAutoMigrateForbidden is returned when --auto-migrate is requested
// outside a development-like APP_ENV.
var ErrAutoMigrateForbidden = errors.New("auto-migrate is only allowed in development environments")

// autoMigrateEnvs are the APP_ENV values that may create the schema on
// startup. An unset APP_ENV counts as development.
var autoMigrateEnvs = map[string]bool{
	"":             true,
	"dev":          true,
	EnvDevelopment: true,
	"local":        true,
	"test":         true,
	"testing":      true,
}

// InitializeEnvFile loads DOTENV_FILES (comma separated, default ".env")
// into the process environment without overriding variables already set.
// SKIP_DOTENV=true disables it, which is what containers use.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env loading", "env", "SKIP_DOTENV")
		return
	}

	files := dotenvFiles(utils.GetEnvTrimmed("DOTENV_FILES"))
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("No .env file loaded", "files", files, "error", err.Error())
		return
	}

	logger.Info("Environment loaded from .env", "files", files)
}

func dotenvFiles(raw string) []string {
	var files []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return []string{".env"}
	}
	return files
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

// ValidateAutoMigrateAllowed guards the server's --auto-migrate flag. Shared
// environments run `cli migrate up` instead.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if autoMigrateEnvs[env] {
		return nil
	}
	return fmt.Errorf("%w: %s=%q", ErrAutoMigrateForbidden, AppEnvKey, env)
}
