package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akeren/waitlist-service/config"
	"github.com/akeren/waitlist-service/internal/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var logger = log.NewLoggerWithJSONOutput()

var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Operational commands for the waitlist service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitializeEnvFile(logger)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newMigrateCmd(), newCountCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

// openDatabase connects with the same settings as the server.
func openDatabase(ctx context.Context) (*gorm.DB, func(), error) {
	db, err := config.NewDatabase(ctx, logger, config.NewDBConfig())
	if err != nil {
		return nil, nil, err
	}

	return db, func() { config.CloseDatabase(db, logger) }, nil
}
