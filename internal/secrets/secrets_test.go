// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  []string
	}{
		{
			name: "reads key files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, SerperAPIKey, "  sk_abc123  \n")
				writeFile(t, dir, OpenAIAPIKey, "sk-xyz789")
				return dir
			},
			want: []string{OpenAIAPIKey, SerperAPIKey},
		},
		{
			name: "nonexistent directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: []string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, AnthropicAPIKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: []string{AnthropicAPIKey},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, SerperAPIKey, "sk_real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: []string{SerperAPIKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Load(tt.setup(t), zaptest.NewLogger(t))
			require.NoError(t, err)
			got := store.Names()
			sort.Strings(got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPrefersFileOverEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SerperAPIKey, "from-file\n")
	t.Setenv("SERPER_API_KEY", "from-env")
	t.Setenv("OPENAI_API_KEY", " from-env ")

	store, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-file", store.Get(SerperAPIKey))
	assert.Equal(t, "from-env", store.Get(OpenAIAPIKey))
}

func TestGetUnset(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	var store *Store
	assert.Equal(t, "", store.Get(AnthropicAPIKey))
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, dir, ".env", "EQUITY_TEST_DOTENV_KEY=dotenv-value\nEQUITY_TEST_DOTENV_KEEP=dotenv\n")

	t.Setenv("EQUITY_TEST_DOTENV_KEEP", "process")
	t.Setenv("EQUITY_TEST_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("EQUITY_TEST_DOTENV_KEY"))

	require.NoError(t, LoadDotenv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "dotenv-value", os.Getenv("EQUITY_TEST_DOTENV_KEY"))
	assert.Equal(t, "process", os.Getenv("EQUITY_TEST_DOTENV_KEEP"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SERPER_API_KEY", EnvName(SerperAPIKey))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
