package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/akeren/waitlist-service/config"
	"github.com/akeren/waitlist-service/domain"
	"github.com/akeren/waitlist-service/internal/log"
)

const shutdownGracePeriod = 30 * time.Second

// autoMigrateRequested reports whether --auto-migrate (or -m) was passed.
// Any other argument is ignored.
func autoMigrateRequested(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		arg = strings.ToLower(strings.TrimSpace(arg))
		return arg == "--auto-migrate" || arg == "-m"
	})
}

func main() {
	logger := log.NewLoggerWithJSONOutput()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, autoMigrateRequested(os.Args[1:])); err != nil {
		logger.Error("Waitlist service exited with error", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

// run serves the waitlist API until ctx is cancelled or the listener fails,
// then drains in-flight requests and releases the database, cache and tracer.
func run(ctx context.Context, logger *log.Logger, autoMigrate bool) error {
	logger.Info("Waitlist service starting", "auto_migrate", autoMigrate)

	appConfig, err := config.LoadApplicationConfiguration(ctx, logger, autoMigrate)
	if err != nil {
		return err
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining requests", "grace", shutdownGracePeriod.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server did not shut down cleanly", "error", err)
		return err
	}

	logger.Info("Waitlist service stopped")
	return nil
}
