package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/go-auth-storage/internal/config"
	"github.com/MKhiriev/go-auth-storage/internal/logger"
	"github.com/MKhiriev/go-auth-storage/internal/server"
	"github.com/MKhiriev/go-auth-storage/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const startupTimeout = 30 * time.Second

func main() {
	printBuildInfo()

	log := logger.NewLogger("auth-storage")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	storage := store.NewSQLStorage(cfg.Storage.DB, cfg.App.TokenLifetime, log)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	if err := storage.Connect(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("error connecting storage")
	}
	if err := storage.Initialize(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("error initializing storage schema")
	}
	if err := storage.Validate(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("storage schema validation failed")
	}
	cancel()

	srv := server.New(cfg.Server, storage, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Err(err).Msg("health server stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Msg("error during server shutdown")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
