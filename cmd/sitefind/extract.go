package main

import (
	"fmt"
	"io"
	"os"

	"github.com/FranksOps/sitefind/internal/pipeline"
	"github.com/FranksOps/sitefind/internal/report"
	"github.com/FranksOps/sitefind/internal/serp"
	"github.com/spf13/cobra"
)

func (c *cli) extractCommand() *cobra.Command {
	var (
		file   string
		query  string
		mode   string
		limit  int
		format string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Rank the results of a saved results page",
		Long: `Extract reads a saved Google results page and ranks its results against
the query without contacting any upstream. Use --file - to read stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := c.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			doc, err := readDocument(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			extractor := cfg.Extractor()
			if mode != "" {
				var ok bool
				if extractor, ok = serp.ParseMode(mode); !ok {
					return fmt.Errorf("unknown extract mode %q", mode)
				}
			}
			if limit <= 0 {
				limit = cfg.ResultCap
			}

			p := &pipeline.Pipeline{Extractor: extractor, Cap: limit, Logger: logger}
			out := p.Evaluate(doc, query)
			logger.Debug("extracted candidates", "file", file, "candidates", len(out.Candidates))

			return report.Write(cmd.OutOrStdout(), outputFormat(format, asJSON), report.GenerateSummary(out, query))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "saved results page, - for stdin")
	cmd.Flags().StringVarP(&query, "query", "q", "", "phrase to rank against")
	cmd.Flags().StringVar(&mode, "mode", "", "extract mode: flat or structured (default from config)")
	cmd.Flags().IntVar(&limit, "cap", 0, "maximum number of candidates (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or html")
	cmd.Flags().BoolVar(&asJSON, "json", false, "shorthand for --format json")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readDocument(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read results page: %w", err)
	}
	return string(b), nil
}
