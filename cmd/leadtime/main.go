// Command leadtime measures how long a team's pull requests take from first
// commit to merge, either as an HTTP service or as a one-shot CLI run.
package main

import (
	"log/slog"
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "leadtime",
		Short: "Pull request lead-time analysis for GitHub teams",
		Long: `leadtime resolves the members and maintained repositories of one or more
GitHub teams, collects their merged pull requests and reports the time from
first commit to merge, overall and per calendar period.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log GitHub API calls and rate-limit state")

	root.AddCommand(newServeCmd(), newAnalyzeCmd(), newCredentialsCmd())
	return root
}
