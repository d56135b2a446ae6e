package main

import (
	"context"
	"log/slog"

	githubadapter "github.com/ericfisherdev/leadtime/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/leadtime/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/leadtime/internal/application"
	"github.com/ericfisherdev/leadtime/internal/config"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

// openCredentialStore opens the database (dual reader/writer with WAL mode)
// and applies pending migrations. The caller closes the returned DB.
func openCredentialStore(ctx context.Context, cfg *config.Config) (*sqliteadapter.DB, *sqliteadapter.CredentialRepo, error) {
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Debug("migrations complete")

	return db, sqliteadapter.NewCredentialRepo(db, cfg.SecretKey), nil
}

func closeDB(db *sqliteadapter.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// defaultToken resolves the startup credential: a stored token takes priority
// over LEADTIME_GITHUB_TOKEN. store may be nil.
func defaultToken(ctx context.Context, cfg *config.Config, store driven.CredentialStore) string {
	if store == nil || cfg.SecretKey == nil {
		return cfg.GitHubToken
	}

	stored, err := store.Get(ctx, driven.GitHubService)
	if err != nil {
		slog.Warn("could not read stored github credential, using configured token", "error", err)
		return cfg.GitHubToken
	}
	if stored != "" {
		return stored
	}
	return cfg.GitHubToken
}

// newProvider builds the client provider. Every run gets a fresh client with
// its own response cache and rate-limit state.
func newProvider(cfg *config.Config, token string) *application.GitHubClientProvider {
	cooldown := cfg.RateLimitCooldown
	return application.NewGitHubClientProvider(token, func(runToken string) driven.GitHubClient {
		return githubadapter.NewClient(runToken, githubadapter.WithCooldown(cooldown))
	})
}
