// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/article-engine/internal/section"
)

// OpenAI writes sections through the chat completions API of openai-go.
// BaseURL points it at any compatible endpoint.
type OpenAI struct {
	Model     string
	MaxTokens int
	Opts      []option.RequestOption
}

// NewOpenAI validates the settings and builds the request options.
func NewOpenAI(apiKey, model, baseURL string, maxTokens, maxRetries int) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing; set openai-api-key")
	}
	if model == "" {
		return nil, errors.New("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(maxRetries))
	}
	return &OpenAI{Model: model, MaxTokens: maxTokens, Opts: opts}, nil
}

// Complete sends the section prompt as a system and a user message.
func (o *OpenAI) Complete(ctx context.Context, p section.Prompt) (string, error) {
	prompt, err := renderPrompt(p)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	client := openai.NewClient(o.Opts...)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}
	if o.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
