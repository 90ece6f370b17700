package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"followup/internal/config"
	"followup/internal/models"
	"followup/internal/server"
	"followup/internal/storage"
	"followup/internal/storage/postgres"
	"followup/internal/storage/sqlite"
)

func main() {
	seedTenant := flag.String("seed", "", "Insert a demo application for the given tenant id and print its id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}))
	logger.Info("follow-up task service starting",
		slog.String("driver", cfg.Database.Driver),
		slog.String("addr", cfg.Server.Addr))

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("unable to open task store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	if *seedTenant != "" {
		app, err := store.CreateApplication(context.Background(), models.Application{TenantID: *seedTenant})
		if err != nil {
			logger.Error("unable to seed application", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("seeded demo application",
			slog.String("application_id", app.ID),
			slog.String("tenant_id", app.TenantID))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(store, logger, cfg.Server.StaticDir, loc)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(cfg.Database.DSN, logger)
	default:
		return sqlite.Open(cfg.Database.DSN, logger)
	}
}

func logLevel(name string) slog.Level {
	switch name {
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
