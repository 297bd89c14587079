package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"playlistforge/internal/httpapi"
	"playlistforge/internal/logging"
)

func main() {
	// Optional .env for deployments that configure via environment files.
	_ = godotenv.Load()

	listen := flag.String("listen", envOr("PLAYLISTFORGE_LISTEN", "127.0.0.1:8420"), "HTTP listen address")
	outDir := flag.String("out-dir", envOr("PLAYLISTFORGE_OUT_DIR", "out"), "directory holding personalized playlist outputs")
	reportPath := flag.String("report", envOr("PLAYLISTFORGE_REPORT", "work/report.json"), "path to the latest run report JSON")
	readHeaderTimeout := flag.Duration("read-header-timeout", 5*time.Second, "HTTP ReadHeaderTimeout")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown wait after a termination signal")
	logLevel := flag.String("log-level", envOr("PLAYLISTFORGE_LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	logFormat := flag.String("log-format", envOr("PLAYLISTFORGE_LOG_FORMAT", "text"), "log format: text|json")
	flag.Parse()

	logging.Setup(*logLevel, *logFormat)

	srv := &http.Server{
		Addr: *listen,
		Handler: httpapi.NewHandler(httpapi.Options{
			OutDir:     *outDir,
			ReportPath: *reportPath,
		}),
		ReadHeaderTimeout: *readHeaderTimeout,
	}

	slog.Info("listening", "addr", *listen, "out_dir", *outDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
