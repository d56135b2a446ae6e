package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/leadtime/internal/config"
	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the stored GitHub token (requires LEADTIME_SECRET_KEY)",
	}
	cmd.AddCommand(newCredentialsSetCmd(), newCredentialsDeleteCmd(), newCredentialsStatusCmd())
	return cmd
}

func newCredentialsSetCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a GitHub token, read from --token or the first line of stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				read, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				token = read
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("no token given")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SecretKey == nil {
				return driven.ErrEncryptionKeyNotSet
			}

			db, store, err := openCredentialStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := store.Set(cmd.Context(), driven.GitHubService, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GitHub token stored.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "GitHub token to store")

	return cmd
}

func newCredentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, store, err := openCredentialStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := store.Delete(cmd.Context(), driven.GitHubService); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "GitHub token deleted.")
			return nil
		},
	}
}

func newCredentialsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which GitHub credentials are available, without revealing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SecretKey == nil {
				writeCredentialStatus(cmd.OutOrStdout(), nil, cfg.HasGitHubToken())
				return nil
			}

			db, store, err := openCredentialStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			creds, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			writeCredentialStatus(cmd.OutOrStdout(), creds, cfg.HasGitHubToken())
			return nil
		},
	}
}

// writeCredentialStatus prints one line per stored credential followed by
// whether LEADTIME_GITHUB_TOKEN is set. Values are never printed.
func writeCredentialStatus(w io.Writer, creds []model.Credential, envToken bool) {
	if len(creds) == 0 {
		fmt.Fprintln(w, "No stored credentials.")
	}
	for _, c := range creds {
		fmt.Fprintf(w, "%s: stored, updated %s\n", c.Service, c.UpdatedAt.UTC().Format(time.RFC3339))
	}

	env := "not set"
	if envToken {
		env = "set"
	}
	fmt.Fprintf(w, "LEADTIME_GITHUB_TOKEN: %s\n", env)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	return line, nil
}
