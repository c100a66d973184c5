// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-engine/internal/section"
	"github.com/pdiddy/article-engine/pkg/types"
)

var samplePrompt = section.Prompt{
	Topic:   "Consensus",
	Section: "Background",
	Outline: "# Background\n## Raft",
	Info:    "[1]\nraft elects leaders\n\n",
}

func TestRenderPrompt(t *testing.T) {
	got, err := renderPrompt(samplePrompt)
	require.NoError(t, err)
	assert.Contains(t, got, "[1]\nraft elects leaders")
	assert.Contains(t, got, "The topic of the page: Consensus")
	assert.Contains(t, got, "The section you need to write: Background")
	assert.Contains(t, got, "# Background\n## Raft")
	assert.NotContains(t, got, "components")

	p := samplePrompt
	p.Outline = ""
	p.Instructions = "Describe the components."
	got, err = renderPrompt(p)
	require.NoError(t, err)
	assert.NotContains(t, got, "The outline of the section")
	assert.Contains(t, got, "Describe the components.")
}

// --- Claude ---

func withClaudeServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	old := claudeAPIURL
	claudeAPIURL = ts.URL
	t.Cleanup(func() { claudeAPIURL = old })
}

func TestClaudeComplete(t *testing.T) {
	var got claudeRequest
	withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"# Background\n"},{"type":"text","text":"Raft [1]."}]}`)
	})

	c := &Claude{APIKey: "test-key", Model: "claude-test"}
	out, err := c.Complete(context.Background(), samplePrompt)
	require.NoError(t, err)
	assert.Equal(t, "# Background\nRaft [1].", out)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.Equal(t, systemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.True(t, strings.Contains(got.Messages[0].Content, "Background"))
}

func TestClaudeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"no text", http.StatusOK, `{"content":[{"type":"tool_use"}]}`},
		{"bad json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withClaudeServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			c := &Claude{APIKey: "k", Model: "m"}
			_, err := c.Complete(context.Background(), samplePrompt)
			assert.Error(t, err)
		})
	}
}

// --- OpenAI ---

func TestOpenAIComplete(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-test",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "Raft elects a leader [1]."}}]
		}`)
	}))
	defer ts.Close()

	o, err := NewOpenAI("test-key", "gpt-test", ts.URL+"/v1", 500, 0)
	require.NoError(t, err)

	out, err := o.Complete(context.Background(), samplePrompt)
	require.NoError(t, err)
	assert.Equal(t, "Raft elects a leader [1].", out)

	assert.Equal(t, "gpt-test", got["model"])
	assert.EqualValues(t, 500, got["max_completion_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestNewOpenAIValidation(t *testing.T) {
	_, err := NewOpenAI("", "m", "", 0, 0)
	assert.Error(t, err)
	_, err = NewOpenAI("k", "", "", 0, 0)
	assert.Error(t, err)
}

// --- provider selection ---

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.AIConfig
		wantErr bool
		check   func(t *testing.T, c section.Completer)
	}{
		{
			name: "anthropic default",
			cfg:  types.AIConfig{APIKey: "k"},
			check: func(t *testing.T, c section.Completer) {
				cl, ok := c.(*Claude)
				require.True(t, ok)
				assert.Equal(t, DefaultModels[types.ProviderAnthropic], cl.Model)
			},
		},
		{
			name: "openai with model",
			cfg:  types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "k", Model: "gpt-x"},
			check: func(t *testing.T, c section.Completer) {
				o, ok := c.(*OpenAI)
				require.True(t, ok)
				assert.Equal(t, "gpt-x", o.Model)
			},
		},
		{name: "anthropic without key", cfg: types.AIConfig{}, wantErr: true},
		{name: "gemini without key", cfg: types.AIConfig{Provider: types.ProviderGemini}, wantErr: true},
		{name: "unknown provider", cfg: types.AIConfig{Provider: "llama", APIKey: "k"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}
