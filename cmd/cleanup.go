package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	cleanupInterval time.Duration
	cleanupOnce     bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Garbage-collect expired tokens and one-time codes",
	Long:  `Run the session maintenance loop that removes expired token records and one-time codes from the database.`,
	Run: func(cmd *cobra.Command, args []string) {
		startCleanupWorker()
	},
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupInterval, "interval", time.Hour, "time between cleanup sweeps")
	cleanupCmd.Flags().BoolVar(&cleanupOnce, "once", false, "run a single sweep and exit")
}

func startCleanupWorker() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.Redis.Close()

	logger := deps.Logger

	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := deps.AuthService.CleanupExpired(ctx); err != nil {
			logger.Error("cleanup sweep failed", "error", err)
		}
	}

	if cleanupOnce {
		sweep()
		return
	}

	logger.Info("cleanup worker is running. Press Ctrl+C to stop.", "interval", cleanupInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	sweep()
	for {
		select {
		case <-ticker.C:
			sweep()
		case sig := <-sigChan:
			logger.Info("received signal, shutting down cleanup worker", "signal", sig)
			return
		}
	}
}
