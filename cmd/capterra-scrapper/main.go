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

	"github.com/Junaid-liberatelabs/capterra-scrapper/api"
	"github.com/Junaid-liberatelabs/capterra-scrapper/browser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/cache"
	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
	"github.com/Junaid-liberatelabs/capterra-scrapper/parser"
	"github.com/Junaid-liberatelabs/capterra-scrapper/scraper"
)

func main() {
	// ── 1. Load and validate configuration ──────────────────────────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("capterra-scrapper starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"concurrency", cfg.Loader.Concurrency,
	)

	// ── 3. Initialise browser factory (launches Chrome) ─────────────
	factory, err := browser.NewRodFactory(cfg.Browser)
	if err != nil {
		slog.Error("failed to initialise browser", "error", err)
		os.Exit(1)
	}
	defer factory.Close()

	// ── 4. Wire extractor and orchestrator ──────────────────────────
	extractor := parser.New(cfg.Selectors)
	orc := scraper.New(factory, extractor, cfg.Loader, cfg.Selectors)

	// ── 4b. Initialise cache ────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(cfg, factory, orc, cc)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// factory.Close() runs via defer and kills Chrome.
	slog.Info("capterra-scrapper stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
