// Package openai talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Groq, the Hugging Face router).
package openai

import (
	"context"
	"fmt"

	"ai-policydesk-be/pkg/llm"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Provider struct {
	client sdk.Client
	model  string
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{
		client: sdk.NewClient(opts...),
		model:  model,
	}
}

func (p *Provider) params(history []llm.Message, opts ...llm.Option) sdk.ChatCompletionNewParams {
	options := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7, MaxTokens: 1024}, opts...)

	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case llm.RoleSystem:
			messages = append(messages, sdk.SystemMessage(m.Content))
		case llm.RoleAssistant, "model":
			messages = append(messages, sdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, sdk.UserMessage(m.Content))
		}
	}

	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(options.Model),
		Messages:    messages,
		Temperature: sdk.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(options.MaxTokens))
	}
	return params
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(history, opts...))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from chat completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	s := p.client.Chat.Completions.NewStreaming(ctx, p.params(history, opts...))
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("chat completion stream failed: %w", err)
	}
	return &chunkStream{s: s}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
