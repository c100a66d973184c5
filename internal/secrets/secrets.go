// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from a .env file. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
// A .env variable OPENAI_API_KEY is known under the key openai-api-key.
//
// Supported keys: anthropic-api-key, openai-api-key, gemini-api-key,
// semantic-scholar-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Key names.
const (
	AnthropicAPIKey       = "anthropic-api-key"
	OpenAIAPIKey          = "openai-api-key"
	GeminiAPIKey          = "gemini-api-key"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Get returns the value of key, or fallback when it is unset.
func (s Secrets) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
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
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// keyName converts an environment variable name to a key name:
// GEMINI_API_KEY becomes gemini-api-key.
func keyName(env string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(env)), "_", "-")
}

// LoadEnv reads a .env file. A missing file yields an empty map.
func LoadEnv(path string) (Secrets, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	secrets := make(Secrets, len(vars))
	for k, v := range vars {
		if v = strings.TrimSpace(v); v != "" {
			secrets[keyName(k)] = v
		}
	}
	return secrets, nil
}

// Resolve merges the .env file at envPath with the key files in dir. Key
// files take precedence.
func Resolve(dir, envPath string) (Secrets, error) {
	merged, err := LoadEnv(envPath)
	if err != nil {
		return nil, err
	}
	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		merged[k] = v
	}
	return merged, nil
}
