// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/equity-research/internal/secrets"
	"github.com/pdiddy/equity-research/pkg/types"
)

func secretsDir(t *testing.T, files map[string]string) *secrets.Store {
	t.Helper()
	dir := t.TempDir()
	for name, val := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(val+"\n"), 0o600))
	}
	s, err := secrets.Load(dir, nil)
	require.NoError(t, err)
	return s
}

func TestApplySecretsOpenAI(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "")
	s := secretsDir(t, map[string]string{
		secrets.OpenAIAPIKey: "sk-openai",
		secrets.SerperAPIKey: "serper",
	})

	cfg := types.DefaultConfig()
	applySecrets(&cfg, s)

	assert.Equal(t, "sk-openai", cfg.AI.APIKey)
	assert.Equal(t, "sk-openai", cfg.AI.EmbeddingAPIKey)
	assert.Equal(t, "serper", cfg.Search.APIKey)
}

func TestApplySecretsAnthropic(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SERPER_API_KEY", "")
	s := secretsDir(t, map[string]string{secrets.AnthropicAPIKey: "sk-ant"})

	cfg := types.DefaultConfig()
	cfg.AI.Provider = types.ProviderAnthropic
	applySecrets(&cfg, s)

	assert.Equal(t, "sk-ant", cfg.AI.APIKey)
	assert.Empty(t, cfg.AI.EmbeddingAPIKey)
	assert.Empty(t, cfg.Search.APIKey)
}

func TestApplySecretsKeepsConfiguredKeys(t *testing.T) {
	s := secretsDir(t, map[string]string{secrets.OpenAIAPIKey: "from-file"})

	cfg := types.DefaultConfig()
	cfg.AI.APIKey = "from-config"
	applySecrets(&cfg, s)

	assert.Equal(t, "from-config", cfg.AI.APIKey)
}

func TestApplySecretsFromEnvironment(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "env-serper")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := types.DefaultConfig()
	applySecrets(&cfg, nil)

	assert.Equal(t, "env-serper", cfg.Search.APIKey)
	assert.Empty(t, cfg.AI.APIKey)
}
