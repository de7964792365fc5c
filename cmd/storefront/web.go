package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newMux(cfg *config.Config, client *catalog.Client) *http.ServeMux {
	mux := http.NewServeMux()
	catalog.NewHandler(catalog.NewService(client, cfg)).Register(mux)

	ro := &readyOnce{}
	ro.Add(client)
	mux.Handle("/ready", ro)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func runServer(cfg *config.Config, addr string) error {
	client, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           WithMiddleware(newMux(cfg, client)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Serving storefront", "address", addr, "catalog", cfg.Catalog.BaseURL)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

func gracefulShutdown(svr *http.Server) error {
	// kubernetes gives 30 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	return nil
}
