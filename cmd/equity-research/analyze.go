// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/catalog"
	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/internal/pipeline"
	"github.com/pdiddy/equity-research/internal/query"
	"github.com/pdiddy/equity-research/internal/render"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "Show how a question is structured before research",
	Long: `Analyze extracts the company, ticker, intent, topics, time frame, and
search queries from a question and prints them without searching or
fetching anything.

Without a generation API key the rule-based fallback analysis is shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		if format == render.FormatMarkdown {
			return fmt.Errorf("analyze supports json and yaml output")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var gen llm.Generator
		if cfg.AI.APIKey != "" {
			if gen, err = llm.New(cfg.AI, logger); err != nil {
				return err
			}
		} else {
			logger.Warn("no generation API key, showing fallback analysis", zap.String("provider", string(cfg.AI.Provider)))
		}

		runner := pipeline.NewRunner(pipeline.Components{
			Analyzer: query.NewAnalyzer(gen, cfg.Query, catalog.Default(), logger),
		}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		req, err := runner.Analyze(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return render.Write(os.Stdout, format, req)
	},
}

func init() {
	analyzeCmd.Flags().String("format", string(render.FormatYAML), "output format: json or yaml")

	rootCmd.AddCommand(analyzeCmd)
}
