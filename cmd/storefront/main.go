package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"storefront/internal/config"
	"strings"
	"time"
)

func main() {
	var addr string
	var debug bool
	var help bool

	flag.StringVar(&addr, "addr", "", "Address to bind (defaults to $ADDR or :8080)")
	flag.BoolVar(&debug, "debug", false, "Log at debug level")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	var tel *telemetry
	if cfg.Telemetry.Enabled() {
		tel, err = setupTelemetry(context.Background(), cfg.Telemetry)
		if err != nil {
			log.Fatalf("failed to set up telemetry: %v", err)
		}
	}

	slog.SetDefault(newLogger(cfg.Server.LogFormat, debug, tel))

	serveErr := runServer(cfg, addr)
	if tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := tel.Shutdown(ctx); err != nil {
			slog.Error("telemetry shutdown error", "error", err)
		}
		cancel()
	}
	if serveErr != nil {
		log.Fatalf("server error: %v", serveErr)
	}
}

func newLogger(format string, debug bool, tel *telemetry) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	switch strings.ToLower(format) {
	case "otlp":
		if tel != nil {
			return slog.New(tel.LogHandler())
		}
		// no collector configured
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
}

func showHelp() {
	fmt.Println("storefront - promotion-aware catalog gateway")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  storefront [-addr :8080] [-debug]")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  CATALOG_API_URL          Backend REST API base URL")
	fmt.Println("  ENRICH_CONCURRENCY       Max concurrent product enrichments (0 = unbounded)")
	fmt.Println("  ENRICH_FAILURE_POLICY    degrade or drop")
	fmt.Println("  LOG_FORMAT               text, json or otlp")
	fmt.Println("  OTEL_EXPORTER_OTLP_ENDPOINT  Export traces and logs over OTLP/HTTP")
}
