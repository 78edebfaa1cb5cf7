package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	mongomigration "stayd/internal/migrations/mongo"
	"stayd/internal/sweeper"
	"stayd/pkg/client"
	"stayd/pkg/config"
	"stayd/pkg/model"
)

func main() {
	root := &cobra.Command{
		Use:   "staydctl",
		Short: "Operational tooling for the stayd services",
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMigrateCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Ensure Mongo collections, validators, and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cfg := config.Load("staydctl-migrate")
			cfg.SetMongo()
			defer cfg.GracefulShutdown()

			cfg.Log.Info("Starting Mongo migration job")
			return mongomigration.RunMigration(ctx, cfg.Client.Mongo.Client, cfg.MongoDatabaseName)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "overall migration timeout")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		asOfStr   string
		batchSize int
		token     string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Complete confirmed bookings whose stay has ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load("staydctl-sweep")

			asOf := model.Today()
			if asOfStr != "" {
				parsed, err := model.ParseDate(asOfStr)
				if err != nil {
					return fmt.Errorf("invalid --as-of value %q: %w", asOfStr, err)
				}
				asOf = parsed
			}

			api := client.NewBookingsClient(cfg.BookingsBaseURL, token)
			result, err := sweeper.New(api, cfg.Log, batchSize).Sweep(asOf)
			if err != nil {
				return err
			}

			fmt.Printf("Sweep done: scanned=%d completed=%d failed=%d\n",
				result.Scanned, result.Completed, result.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfStr, "as-of", "", "complete bookings ended before this date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "bookings fetched per page")
	cmd.Flags().StringVar(&token, "token", os.Getenv("STAYD_TOKEN"), "bearer token with staff privileges")
	return cmd
}
