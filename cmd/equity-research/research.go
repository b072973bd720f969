// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equity-research/internal/pipeline"
	"github.com/pdiddy/equity-research/internal/render"
	"github.com/pdiddy/equity-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research <question>",
	Short: "Research a company and write a cited report",
	Long: `Research runs the full pipeline for a question such as
"What are Apple's growth prospects in services?".

In autonomous mode (the default) sources are discovered by search. In
manual mode only the pages given with --url are used; passing --url
without --mode selects manual mode.

The report is written as Markdown by default. Use --format json or
--format yaml for machine-readable output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("mode", string(types.ModeAutonomous), "source mode: autonomous or manual")
	researchCmd.Flags().StringSlice("url", nil, "source URL for manual mode (repeatable)")
	researchCmd.Flags().String("format", string(render.FormatMarkdown), "output format: markdown, terminal, json, yaml")
	researchCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	researchCmd.Flags().Int("max-sources", 0, "maximum number of discovered sources to fetch")
	researchCmd.Flags().String("provider", "", "generation provider: openai, anthropic, gemini")
	researchCmd.Flags().String("model", "", "generation model identifier")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	modeFlag, _ := cmd.Flags().GetString("mode")
	urls, _ := cmd.Flags().GetStringSlice("url")
	formatFlag, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	format, err := render.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	mode := types.Mode(modeFlag)
	if len(urls) > 0 && !cmd.Flags().Changed("mode") {
		mode = types.ModeManual
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyModelFlags(cmd, &cfg); err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-sources"); cmd.Flags().Changed("max-sources") {
		cfg.Search.MaxSources = n
	}

	runner, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := runner.RunResearch(ctx, question, mode, urls)
	if err != nil {
		return err
	}

	return writeOutput(output, func(w io.Writer) error {
		return render.Write(w, format, report)
	})
}

// applyModelFlags overrides the generation provider and model. Changing
// the provider re-resolves its API key.
func applyModelFlags(cmd *cobra.Command, cfg *types.Config) error {
	if cmd.Flags().Changed("provider") {
		p, _ := cmd.Flags().GetString("provider")
		provider := types.Provider(strings.ToLower(p))
		if provider != types.ProviderOpenAI && provider != types.ProviderAnthropic && provider != types.ProviderGemini {
			return fmt.Errorf("unknown provider %q", p)
		}
		if provider != cfg.AI.Provider {
			cfg.AI.Provider = provider
			cfg.AI.APIKey = ""
			applySecrets(cfg, loadedSecrets)
		}
	}
	if cmd.Flags().Changed("model") {
		cfg.AI.Model, _ = cmd.Flags().GetString("model")
	}
	return nil
}

// writeOutput runs write against path, or stdout when path is empty.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintln(os.Stderr, "Wrote", path)
	return nil
}
