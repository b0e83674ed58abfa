// Command gentoostats-collector receives gentoostats uploads and serves
// aggregate statistics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gg7/gentoostats/internal/collector"
	"github.com/gg7/gentoostats/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Print(version.Banner("gentoostats-collector"))
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	addr := envOrDefault("COLLECTOR_ADDR", ":8080")
	dsn := os.Getenv("COLLECTOR_MYSQL_DSN")
	rps := parseFloat(envOrDefault("COLLECTOR_RATE_RPS", "0.2"), 0.2)
	burst := parseInt(envOrDefault("COLLECTOR_RATE_BURST", "5"), 5)
	logLevel := parseLogLevel(envOrDefault("COLLECTOR_LOG_LEVEL", "info"))

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	store, err := openStore(dsn, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := collector.NewRateLimiter(rps, burst)
	go limiter.Run(ctx)

	srv, err := collector.New(store, collector.Options{
		Limiter: limiter,
		Logger:  logger.With("component", "server"),
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting gentoostats-collector",
		"version", version.GetVersion(),
		"addr", addr,
		"mysql", dsn != "",
		"rateRPS", rps,
		"rateBurst", burst,
		"logLevel", logLevel.String(),
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("collector server failed", "error", err)
		os.Exit(1)
	}
}

func openStore(dsn string, logger *slog.Logger) (collector.Store, error) {
	if dsn == "" {
		logger.Warn("COLLECTOR_MYSQL_DSN not set; submissions are kept in memory only")
		return collector.NewMemoryStore(), nil
	}
	return collector.OpenMySQL(dsn)
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseFloat(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
