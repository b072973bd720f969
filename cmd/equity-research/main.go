// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the equity-research CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/logging"
	"github.com/pdiddy/equity-research/internal/secrets"
	"github.com/pdiddy/equity-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state set up by PersistentPreRunE.
var (
	loadedSecrets *secrets.Store
	logger        = zap.NewNop()
)

// envKeys are the configuration keys that may be set through
// EQUITY_RESEARCH_* environment variables.
var envKeys = []string{
	"ai.provider",
	"ai.model",
	"ai.embedding_model",
	"ai.base_url",
	"ai.timeout",
	"search.endpoint",
	"search.max_sources",
	"fetch.workers",
	"fetch.timeout",
	"log.level",
	"log.format",
}

var rootCmd = &cobra.Command{
	Use:   "equity-research",
	Short: "Answer equity research questions from cited web sources",
	Long: `equity-research turns a natural-language question about a public company
into a cited research report. A run analyzes the question, discovers and
fetches sources, scores their credibility, and synthesizes a report from
the passages most relevant to the question.

Sources are discovered through the Serper search API when a key is
configured and come from a curated list of financial sites otherwise.
Use --mode manual with --url to research a fixed set of pages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.LoadDotenv(".env"); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/", nil)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			sort.Strings(names)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", names)
		}

		l, err := logging.New(types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./equity-research.yaml or ~/.config/equity-research/equity-research.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("equity-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "equity-research"))
		}
	}

	viper.SetEnvPrefix("EQUITY_RESEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, k := range envKeys {
		_ = viper.BindEnv(k)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig overlays the config file and environment onto the defaults
// and fills API keys from the secrets store.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	applySecrets(&cfg, loadedSecrets)
	return cfg, nil
}

// applySecrets fills API keys the configuration left empty.
func applySecrets(cfg *types.Config, s *secrets.Store) {
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = s.Get(secrets.SerperAPIKey)
	}
	openaiKey := s.Get(secrets.OpenAIAPIKey)
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case types.ProviderAnthropic:
			cfg.AI.APIKey = s.Get(secrets.AnthropicAPIKey)
		case types.ProviderGemini:
			cfg.AI.APIKey = s.Get(secrets.GeminiAPIKey)
		default:
			cfg.AI.APIKey = openaiKey
		}
	}
	if cfg.AI.EmbeddingAPIKey == "" {
		cfg.AI.EmbeddingAPIKey = openaiKey
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
