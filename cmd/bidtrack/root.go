package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/bidtrack/internal/api"
	"github.com/hyperengineering/bidtrack/internal/bid"
	"github.com/hyperengineering/bidtrack/internal/chat"
	"github.com/hyperengineering/bidtrack/internal/config"
	"github.com/hyperengineering/bidtrack/internal/store"
	"github.com/hyperengineering/bidtrack/internal/tracker"
	"github.com/hyperengineering/bidtrack/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bidtrack",
	Short: "Bidtrack - bid tracking service",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	// Signal handling drives the shutdown sequence.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level)

	// Initialize document directories. Trackers live in a subdirectory of
	// the bids directory, each with its own Archive/ area.
	bidsDir, err := store.Open(filepath.Join(cfg.Storage.DataDir, "bids"))
	if err != nil {
		return err
	}
	trackersDir, err := store.Open(filepath.Join(cfg.Storage.DataDir, "bids", "action_trackers"))
	if err != nil {
		return err
	}
	slog.Info("document store initialized", "path", bidsDir.Path())

	// Initialize services
	trackers := tracker.NewService(trackersDir)
	bids := bid.NewService(bidsDir, trackers)
	sessions := chat.NewManager(bids, time.Duration(cfg.Session.TTL))

	// Initialize HTTP router
	handler := api.NewHandler(bids, trackers, sessions, Version)
	router := api.NewRouter(handler, cfg.CORS.AllowedOrigins)
	slog.Info("router initialized")

	// Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// Background workers
	var wg sync.WaitGroup
	sweeper := worker.NewSessionSweeper(sessions, time.Duration(cfg.Session.SweepInterval))
	startWorker(ctx, &wg, "session-sweeper", sweeper.Run)

	// Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// Graceful shutdown: drain in-flight requests, then wait for workers.
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	slog.Info("shutdown complete")
	return nil
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
