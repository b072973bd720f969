// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API keys and credentials. Keys come from a
// directory of plain-text files (the filename is the key name and the
// trimmed contents are the value), then from the process environment,
// which may be seeded from a .env file.
//
// Supported keys: serper-api-key, openai-api-key, anthropic-api-key,
// gemini-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Key names understood by the pipeline.
const (
	SerperAPIKey    = "serper-api-key"
	OpenAIAPIKey    = "openai-api-key"
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
)

// Store holds secrets read from the secrets directory.
type Store struct {
	files map[string]string
}

// Load reads all files in dir into a Store.
// A missing directory or missing files are not errors; the Store is empty.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Store{files: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			files[name] = value
		}
	}

	return &Store{files: files}, nil
}

// LoadDotenv loads KEY=value pairs from the given .env files into the
// process environment. Missing files are ignored and existing variables
// are never overwritten.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Get returns the secret for key. A file in the secrets directory wins
// over the environment variable named after the key ("serper-api-key"
// becomes SERPER_API_KEY). The empty string means the secret is unset.
func (s *Store) Get(key string) string {
	if s != nil {
		if v, ok := s.files[key]; ok {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv(EnvName(key)))
}

// Names returns the key names found in the secrets directory.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.files))
	for k := range s.files {
		names = append(names, k)
	}
	return names
}

// EnvName converts a key name to its environment variable name.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
