// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   Secrets
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "openai-api-key", "  sk_abc123  \n")
				writeFile(t, dir, "semantic-scholar-api-key", "sk_xyz789")
				writeFile(t, dir, "gemini-api-key", "gk_456\n")
				return dir
			},
			want: Secrets{
				"openai-api-key":           "sk_abc123",
				"semantic-scholar-api-key": "sk_xyz789",
				"gemini-api-key":           "gk_456",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: Secrets{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "anthropic-api-key", "ak_real")
				return dir
			},
			want: Secrets{
				"anthropic-api-key": "ak_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{
				"anthropic-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: Secrets{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions do not apply to root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "OPENAI_API_KEY=sk_env\nGEMINI_API_KEY=\n# comment\nSemantic_Scholar_API_Key=\"ss_env\"\n")

	got, err := LoadEnv(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, Secrets{
		OpenAIAPIKey:          "sk_env",
		SemanticScholarAPIKey: "ss_env",
	}, got)

	got, err = LoadEnv(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveFilesOverrideEnv(t *testing.T) {
	root := t.TempDir()
	secretsDir := filepath.Join(root, ".secrets")
	require.NoError(t, os.Mkdir(secretsDir, 0o755))
	writeFile(t, secretsDir, OpenAIAPIKey, "sk_file")
	writeFile(t, root, ".env", "OPENAI_API_KEY=sk_env\nANTHROPIC_API_KEY=ak_env\n")

	got, err := Resolve(secretsDir, filepath.Join(root, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "sk_file", got.Get(OpenAIAPIKey, ""))
	assert.Equal(t, "ak_env", got.Get(AnthropicAPIKey, ""))
	assert.Equal(t, "fallback", got.Get(GeminiAPIKey, "fallback"))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
