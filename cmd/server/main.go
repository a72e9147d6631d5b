package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudpulse/gcp-pulse/app/api"
	"github.com/cloudpulse/gcp-pulse/app/cache"
	"github.com/cloudpulse/gcp-pulse/app/cfg"
	"github.com/cloudpulse/gcp-pulse/app/feed"
	"github.com/cloudpulse/gcp-pulse/app/sources"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting GCP Pulse server", "version", appCfg.Version)

	catalog, err := sources.LoadCatalog(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load source catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Source catalog loaded", "feeds", len(catalog.Feeds))

	fetcher := sources.NewFetcher(catalog)
	aggregator := feed.NewAggregator(fetcher, catalog.Feeds)
	feedCache := cache.New(time.Duration(appCfg.CacheTTL) * time.Second)

	handler := api.NewHandler(aggregator, fetcher, feedCache, len(catalog.Feeds))
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("GCP Pulse server shutdown complete")
}
