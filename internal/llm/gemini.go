// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pdiddy/article-engine/internal/section"
)

// Gemini writes sections through the Gemini API.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGemini creates a Gemini client. Close releases it.
func NewGemini(ctx context.Context, apiKey, model string, maxTokens int) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key missing; set gemini-api-key")
	}
	if model == "" {
		return nil, errors.New("gemini model is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: maxTokens}, nil
}

// Complete sends the section prompt with the writing rules as system
// instruction and joins the text parts of the first candidate.
func (g *Gemini) Complete(ctx context.Context, p section.Prompt) (string, error) {
	prompt, err := renderPrompt(p)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	if g.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.maxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no text in response")
	}
	return b.String(), nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
