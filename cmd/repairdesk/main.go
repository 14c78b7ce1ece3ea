// Package main запускает HTTP-сервер сервиса repairdesk.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/repairdesk/internal/config"
	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/handler"
	"github.com/mmeshcher/repairdesk/internal/logger"
	"github.com/mmeshcher/repairdesk/internal/middleware"
	"github.com/mmeshcher/repairdesk/internal/repository"
	"github.com/mmeshcher/repairdesk/internal/service"
	"github.com/mmeshcher/repairdesk/internal/telemetry"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sugar := log.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.ServiceName, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			sugar.Warnw("tracing shutdown error", "error", err)
		}
	}()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	api := gateway.NewClient(cfg.APIBaseURL, cfg.APITimeout, repo)
	svc := service.NewService(repo, api, log)

	authMiddleware := middleware.NewAuthMiddleware(cfg.CookieSecret, svc, cfg.CookieSecure)
	h := handler.NewHandler(svc, log, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое удаление истёкших сессий
	g.Go(func() error {
		svc.StartSessionSweeper(ctx, sessionSweepInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting repairdesk server", "addr", cfg.RunAddress, "api", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
