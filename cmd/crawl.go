package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd creates the 'crawl' subcommand: one full crawl, summary
// on stdout, exit.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one full chart crawl and prints the summary",
		Long: `Crawls every configured chart platform once, persists the results,
and prints the structured run summary as JSON. The command exits zero
even when individual platforms fail; inspect the summary for per-source
outcomes.`,

		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	summary := appInstance.Runner.RunNow(cmd.Context())

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !summary.Success {
		appInstance.Logger.Warn("crawl run did not succeed", zap.String("error", summary.ErrorMessage))
	}
	return nil
}
