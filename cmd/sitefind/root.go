package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/FranksOps/sitefind/internal/config"
	"github.com/FranksOps/sitefind/internal/pipeline"
	"github.com/FranksOps/sitefind/internal/scraper"
	"github.com/spf13/cobra"
)

// cli carries state shared by the subcommands.
type cli struct {
	cfgFile string
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "sitefind",
		Short:         "Find the page of a site that best matches a phrase",
		Long:          `sitefind runs a site-restricted Google search through ScraperAPI and ranks the results against the phrase.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./config.yaml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.extractCommand())
	return root
}

// load reads the configuration and builds a logger writing to logOut.
func (c *cli) load(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, cfg.NewLogger(logOut), nil
}

// newPipeline assembles the search pipeline from cfg.
func newPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	fetcher, err := scraper.NewFetcher(cfg.FetchConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	return &pipeline.Pipeline{
		Google:    cfg.Google(),
		Fetcher:   fetcher,
		Extractor: cfg.Extractor(),
		Cap:       cfg.ResultCap,
		Logger:    logger,
	}, nil
}

// outputFormat resolves the --format and --json flags.
func outputFormat(format string, asJSON bool) string {
	if asJSON {
		return "json"
	}
	return format
}
