// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equity-research/internal/pipeline"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a follow-up question from specific pages",
	Long: `Ask fetches the pages given with --url, indexes them, and answers the
question from the most relevant passages. Answers cite their sources as
[Source: <url>].`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, _ := cmd.Flags().GetStringSlice("url")
		if len(urls) == 0 {
			return fmt.Errorf("at least one --url is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyModelFlags(cmd, &cfg); err != nil {
			return err
		}

		runner, err := pipeline.NewFromConfig(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		answer, err := runner.Ask(ctx, strings.Join(args, " "), urls)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringSlice("url", nil, "page to answer from (repeatable)")
	askCmd.Flags().String("provider", "", "generation provider: openai, anthropic, gemini")
	askCmd.Flags().String("model", "", "generation model identifier")

	rootCmd.AddCommand(askCmd)
}
