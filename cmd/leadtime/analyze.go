package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/leadtime/internal/adapter/driving/http"
	"github.com/ericfisherdev/leadtime/internal/application"
	"github.com/ericfisherdev/leadtime/internal/config"
	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

type analyzeOptions struct {
	org     string
	teams   []string
	unit    string
	value   int
	token   string
	compact bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the result as JSON",
		Long: `Run one lead-time analysis and print the result as JSON on stdout.

Flags left unset fall back to the configuration (LEADTIME_ORG,
LEADTIME_GITHUB_TEAMS, LEADTIME_UNIT, LEADTIME_VALUE).

Examples:
  leadtime analyze --org acme --team platform --team web --unit month --value 3
  leadtime analyze --org acme --team platform,web --unit weeks --value 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyConfigDefaults(cmd, &opts, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return analyze(ctx, cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.org, "org", "", "GitHub organization")
	cmd.Flags().StringSliceVar(&opts.teams, "team", nil, "team slug (repeatable or comma-separated)")
	cmd.Flags().StringVar(&opts.unit, "unit", "", "time unit: day, week, month or year")
	cmd.Flags().IntVar(&opts.value, "value", 0, "number of units to look back")
	cmd.Flags().StringVar(&opts.token, "token", "", "GitHub token for this run (overrides the configured one)")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print JSON on a single line")

	return cmd
}

func applyConfigDefaults(cmd *cobra.Command, opts *analyzeOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("org") {
		opts.org = cfg.Organization
	}
	if !flags.Changed("team") {
		opts.teams = cfg.GitHubTeams
	}
	if !flags.Changed("unit") {
		opts.unit = cfg.Unit
	}
	if !flags.Changed("value") {
		opts.value = cfg.Value
	}
}

func analyze(ctx context.Context, out io.Writer, cfg *config.Config, opts analyzeOptions) error {
	// The database is only consulted when stored credentials can be decrypted.
	var store driven.CredentialStore
	if cfg.SecretKey != nil {
		db, credentialStore, err := openCredentialStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB(db)
		store = credentialStore
	}

	svc := application.NewAnalysisService(newProvider(cfg, defaultToken(ctx, cfg, store)))

	result, err := svc.Run(ctx, model.AnalysisRequest{
		Organization: opts.org,
		Teams:        opts.teams,
		Unit:         opts.unit,
		Value:        opts.value,
		Token:        opts.token,
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		slog.Warn("repository excluded from results", "repo", w.Repository.FullName(), "reason", w.Message)
	}

	enc := json.NewEncoder(out)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(httphandler.NewAnalysisResponse(result)); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
