package main

import (
	"context"
	"fmt"
	"io"

	"github.com/akeren/waitlist-service/domain/waitlist"
	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of waitlist entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			service := waitlist.NewWaitlistServiceFactory(db, logger, waitlist.ControllerConfig{}).CreateService()
			return printCount(cmd.Context(), cmd.OutOrStdout(), service)
		},
	}
}

func printCount(ctx context.Context, out io.Writer, service waitlist.WaitlistService) error {
	count, err := service.Count(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, count)
	return err
}
