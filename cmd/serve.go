package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/skillsforge/internal/handler"
	"github.com/Shivanand-hulikatti/skillsforge/internal/repository"
	"github.com/Shivanand-hulikatti/skillsforge/internal/service"
	"github.com/Shivanand-hulikatti/skillsforge/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.close(closeCtx); err != nil {
			a.logger.Error("shutdown", "error", err)
		}
	}()

	shutdownTracing, err := telemetry.SetupTracing(ctx, a.cfg.OTel)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// ── Wire up layers ───────────────────────────────────────────────────
	workshopRepo := repository.NewWorkshopRepository(a.table)
	userRepo := repository.NewUserRepository(a.table)

	h := handler.New(
		service.NewWorkshopService(workshopRepo, a.notifier, a.logger),
		service.NewRegistrationService(workshopRepo, a.notifier, a.logger),
		service.NewStudentService(userRepo, workshopRepo, a.logger),
		service.NewStatsService(workshopRepo, userRepo, a.cfg.Store.StatsCacheTTL, a.logger),
		a.logger,
	)
	router := handler.NewRouter(h, handler.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.RoleClaim), a.logger)

	// ── Start server with graceful shutdown ──────────────────────────────
	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
