package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/retry"
	"github.com/akeren/waitlist-service/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const defaultDBConnectAttempts = 5

var dbRetryBaseDelay = 500 * time.Millisecond

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // used when POSTGRES_SSLMODE is unset
	// ConnectAttempts bounds the startup ping. Transient failures back off exponentially.
	ConnectAttempts int
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvPositiveInt("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    utils.GetEnvPositiveInt("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: utils.GetEnvPositiveDuration("DB_CONN_MAX_LIFETIME", time.Minute),
		SSLMode:         "require",
		ConnectAttempts: utils.GetEnvPositiveInt("DB_CONNECT_ATTEMPTS", defaultDBConnectAttempts),
	}
}

func NewDatabase(ctx context.Context, logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfig()
	}

	dsn, err := ResolveDSN(logger, cfg)
	if err != nil {
		return nil, err
	}

	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey.
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithRetry(ctx, logger, cfg, sqlDB.PingContext); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

func pingWithRetry(ctx context.Context, logger *log.Logger, cfg *DBConfig, ping func(context.Context) error) error {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultDBConnectAttempts
	}

	backoff := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: attempts,
		BaseDelay:   dbRetryBaseDelay,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
		// The database may still be starting; every ping failure is worth another try.
		Retryable: func(error) bool { return true },
	})

	attempt := 0
	err := backoff.Do(ctx, func(ctx context.Context) error {
		attempt++
		if err := ping(ctx); err != nil {
			logger.Warn("Database ping failed", "attempt", attempt, "max_attempts", attempts, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("Database unreachable", "attempts", attempt, "error", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// postgresParams are the POSTGRES_* variables used when APP_DATABASE_URL is unset.
type postgresParams struct {
	host, port, user, password, dbName, sslMode string
}

func postgresParamsFromEnv() postgresParams {
	return postgresParams{
		host:     envUnquoted("POSTGRES_HOST"),
		port:     envUnquoted("POSTGRES_PORT"),
		user:     envUnquoted("POSTGRES_USER"),
		password: envUnquoted("POSTGRES_PASSWORD"),
		dbName:   envUnquoted("POSTGRES_DB_NAME"),
		sslMode:  envUnquoted("POSTGRES_SSLMODE"),
	}
}

func (p postgresParams) missing() []string {
	var names []string
	for _, required := range []struct{ name, value string }{
		{"POSTGRES_HOST", p.host},
		{"POSTGRES_PORT", p.port},
		{"POSTGRES_USER", p.user},
		{"POSTGRES_DB_NAME", p.dbName},
	} {
		if required.value == "" {
			names = append(names, required.name)
		}
	}
	return names
}

// keywordDSN renders the libpq keyword form. Values with spaces or quotes are
// single-quoted.
func (p postgresParams) keywordDSN(port int) string {
	pairs := []string{
		"host=" + dsnValue(p.host),
		"port=" + strconv.Itoa(port),
		"user=" + dsnValue(p.user),
		"password=" + dsnValue(p.password),
		"dbname=" + dsnValue(p.dbName),
		"sslmode=" + dsnValue(p.sslMode),
	}
	return strings.Join(pairs, " ")
}

func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// ResolveDSN prefers APP_DATABASE_URL and falls back to the POSTGRES_* variables.
func ResolveDSN(logger *log.Logger, cfg *DBConfig) (string, error) {
	if databaseURL := envUnquoted("APP_DATABASE_URL"); databaseURL != "" {
		logger.Info("Using APP_DATABASE_URL for database connection")
		return databaseURL, nil
	}

	params := postgresParamsFromEnv()
	if params.sslMode == "" {
		params.sslMode = cfg.SSLMode
	}

	if missing := params.missing(); len(missing) > 0 {
		names := strings.Join(missing, ", ")
		logger.Error("Missing required database environment variables", "missing_vars", names)
		return "", fmt.Errorf("missing required database env vars: %s", names)
	}

	port, err := strconv.Atoi(params.port)
	if err != nil || port <= 0 {
		logger.Error("Invalid POSTGRES_PORT", "value", params.port)
		return "", fmt.Errorf("invalid POSTGRES_PORT %q", params.port)
	}

	logger.Info("Connecting to database",
		"host", params.host,
		"port", port,
		"dbname", params.dbName,
		"sslmode", params.sslMode,
	)
	return params.keywordDSN(port), nil
}

// envUnquoted reads key and strips one pair of matching surrounding quotes,
// as left behind by some .env editors.
func envUnquoted(key string) string {
	v := utils.GetEnvTrimmed(key)
	if len(v) < 2 {
		return v
	}
	if first, last := v[0], v[len(v)-1]; first == last && (first == '"' || first == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}

// AutoMigrate lets gorm create or alter the tables of models. Guarded by
// ValidateAutoMigrateAllowed; deployed databases use the SQL migrations.
func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...any) error {
	if db == nil {
		return errors.New("auto-migrate: no database connection")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Auto-migrate failed", "models", len(models), "error", err)
		return fmt.Errorf("auto-migrate: %w", err)
	}

	logger.Info("Auto-migrate completed", "models", len(models))
	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		logger.Error("Failed to close database", "error", err)
		return
	}
	logger.Info("Database connection closed")
}
