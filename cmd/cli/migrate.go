package main

import (
	"context"
	"time"

	"github.com/akeren/waitlist-service/pkg/migrations"
	"github.com/akeren/waitlist-service/pkg/utils"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var (
		dir     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations and exit",
		Long: `Apply pending SQL migrations and exit.

The schema embedded in the binary is used unless --dir or MIGRATIONS_DIR
points at a directory of migration files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, closeDB, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}

			if dir == "" {
				dir = utils.GetEnvTrimmed("MIGRATIONS_DIR")
			}

			if err := migrations.Up(ctx, sqlDB, migrations.Config{Dir: dir, Logger: logger}); err != nil {
				return err
			}

			logger.Info("Database migrations completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded schema")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort migrations after this long")

	return cmd
}
