package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/leadtime/internal/adapter/driving/http"
	"github.com/ericfisherdev/leadtime/internal/application"
	"github.com/ericfisherdev/leadtime/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the lead-time analysis API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"config_file", cfg.File,
		"rate_limit_cooldown", cfg.RateLimitCooldown,
		"credential_storage", cfg.SecretKey != nil,
		"env_token", cfg.HasGitHubToken(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the credential database.
	db, credentialStore, err := openCredentialStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	// 4. Resolve the default GitHub token and wire the services.
	token := defaultToken(ctx, cfg, credentialStore)
	if token == "" {
		slog.Info("no github token configured, analyses must supply one until a credential is stored")
	}
	provider := newProvider(cfg, token)
	analysisSvc := application.NewAnalysisService(provider)

	// 5. HTTP handler with middleware.
	apiHandler := httphandler.NewHandler(analysisSvc, provider, credentialStore, cfg.GitHubToken, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	// Analyses are synchronous and may page through many repositories, so the
	// write timeout is generous.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("leadtime started", "listen_addr", cfg.ListenAddr)

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 7. Graceful shutdown; in-flight analyses get 30s to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
