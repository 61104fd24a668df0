package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/FranksOps/sitefind/internal/report"
	"github.com/spf13/cobra"
)

func (c *cli) searchCommand() *cobra.Command {
	var (
		domain string
		query  string
		format string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a site for a phrase",
		Long: `Search runs one site-restricted search and prints the ranked candidates.

Examples:
  # Find the page of example.com about cherry tarts
  sitefind search --domain example.com --query "cherry tart"

  # Same, as JSON
  sitefind search -d example.com -q "cherry tart" --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := c.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p, err := newPipeline(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out, err := p.Run(ctx, domain, query)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return report.Write(cmd.OutOrStdout(), outputFormat(format, asJSON), report.GenerateSummary(out, query))
		},
	}

	cmd.Flags().StringVarP(&domain, "domain", "d", "", "site to search, e.g. example.com")
	cmd.Flags().StringVarP(&query, "query", "q", "", "phrase to look for")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or html")
	cmd.Flags().BoolVar(&asJSON, "json", false, "shorthand for --format json")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
