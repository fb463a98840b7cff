package waitlist

import (
	"io"
	"log/slog"
	"testing"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to :memory: opens a fresh database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newQuietLogger() *log.Logger {
	return log.NewLogger(io.Discard, slog.LevelError)
}
