package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tempcast/tempcast/internal/router"
	"github.com/tempcast/tempcast/internal/utils"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the forecasting HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	logger := a.logger
	logger.Info("tempcast API starting", "version", Version, "commit", GitCommit, "build time", BuildTime)

	if a.cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(a.cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Requests compute on demand; nothing is written to the output directory
	server := router.New(logger, a.forecastService(nil), a.locations, a.metrics, *a.cfg, Version)

	errCh := make(chan error, 1)
	go func() {
		addr := a.cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		errCh <- server.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-cmd.Context().Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
	return nil
}
