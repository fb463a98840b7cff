package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	schema "github.com/akeren/waitlist-service/migrations"
)

type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

// Source is either a URL understood by golang-migrate or an already opened
// source driver.
type Source struct {
	URL    string
	Driver source.Driver
}

func (s Source) String() string {
	if s.Driver != nil {
		return "embedded"
	}
	return s.URL
}

var driverFactory = func(db *sql.DB, cfg Config) (database.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationsTable})
}

var migratorFactory = func(src Source, driver database.Driver) (migrator, error) {
	if src.Driver != nil {
		return migrate.NewWithInstance("iofs", src.Driver, "postgres", driver)
	}
	return migrate.NewWithDatabaseInstance(src.URL, "postgres", driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const defaultMigrationsTable = "schema_migrations"

type Config struct {
	// Dir reads migrations from disk. When empty, FS is used.
	Dir string
	// FS defaults to the schema embedded in the binary.
	FS              fs.FS
	MigrationsTable string
	Logger          Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.MigrationsTable) == "" {
		c.MigrationsTable = defaultMigrationsTable
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return c
}

// Up applies every pending migration. ErrNoChange counts as success.
func Up(ctx context.Context, db *sql.DB, cfg Config) error {
	if db == nil {
		return errors.New("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg = cfg.withDefaults()

	src, err := resolveSource(cfg)
	if err != nil {
		return err
	}

	driver, err := driverFactory(db, cfg)
	if err != nil {
		return fmt.Errorf("migrations: postgres driver: %w", err)
	}

	m, err := migratorFactory(src, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}

	var closeOnce sync.Once
	closeMigrator := func() { closeOnce.Do(func() { closeLogged(m, cfg.Logger) }) }
	defer closeMigrator()

	cfg.Logger.Info("Running SQL migrations", "source", src.String(), "table", cfg.MigrationsTable)

	err = upWithContext(ctx, m, closeMigrator)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		cfg.Logger.Info("No migrations to apply")
	case err != nil:
		return err
	default:
		logVersion(m, cfg.Logger)
	}
	return nil
}

// upWithContext runs m.Up and, because migrate takes no context, interrupts
// it through abort when ctx is done first.
func upWithContext(ctx context.Context, m migrator, abort func()) error {
	done := make(chan error, 1)
	go func() { done <- m.Up() }()

	select {
	case <-ctx.Done():
		abort()
		return ctx.Err()
	case err := <-done:
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrations: up: %w", err)
		}
		return err
	}
}

func logVersion(m migrator, logger Logger) {
	version, dirty, err := m.Version()
	if err != nil {
		logger.Warn("Migrations applied; version unknown", "error", err)
		return
	}
	logger.Info("Migrations applied successfully", "version", version, "dirty", dirty)
}

// closeLogged closes both ends of m. Close failures are logged, not returned:
// the migration outcome is already decided.
func closeLogged(m migrator, logger Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Migrations source close error", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("Migrations db close error", "error", dbErr)
	}
}

func resolveSource(cfg Config) (Source, error) {
	if strings.TrimSpace(cfg.Dir) != "" {
		absDir, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return Source{}, fmt.Errorf("migrations: resolve dir: %w", err)
		}

		// ToSlash keeps Windows paths valid inside a file:// URL.
		return Source{URL: (&url.URL{
			Scheme: "file",
			Path:   filepath.ToSlash(absDir),
		}).String()}, nil
	}

	fsys := cfg.FS
	if fsys == nil {
		fsys = schema.FS
	}

	driver, err := iofs.New(fsys, ".")
	if err != nil {
		return Source{}, fmt.Errorf("migrations: open embedded source: %w", err)
	}

	return Source{Driver: driver}, nil
}
