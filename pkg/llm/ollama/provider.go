package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ai-policydesk-be/pkg/llm"

	"github.com/ollama/ollama/api"
)

const defaultBaseURL = "http://localhost:11434"

type OllamaProvider struct {
	client    *api.Client
	ModelName string
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	parsed, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		parsed, _ = url.Parse(defaultBaseURL)
	}
	return &OllamaProvider{
		client:    api.NewClient(parsed, &http.Client{Timeout: 120 * time.Second}),
		ModelName: modelName,
	}
}

func (o *OllamaProvider) buildRequest(history []llm.Message, stream bool, opts ...llm.Option) *api.ChatRequest {
	options := llm.Apply(llm.Options{Temperature: 0.7}, opts...)

	messages := make([]api.Message, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		messages[i] = api.Message{Role: role, Content: msg.Content}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	params := map[string]any{"temperature": options.Temperature}
	if options.MaxTokens > 0 {
		params["num_predict"] = options.MaxTokens
	}

	return &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  params,
	}
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	req := o.buildRequest(history, false, opts...)

	var content string
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	return content, nil
}

// ChatStream runs the streaming request on its own goroutine and hands each
// chunk to the returned stream.
func (o *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	req := o.buildRequest(history, true, opts...)
	stream, streamCtx := llm.NewChanStream(ctx)

	go func() {
		err := o.client.Chat(streamCtx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			return stream.Send(streamCtx, resp.Message.Content)
		})
		if err != nil {
			err = fmt.Errorf("ollama stream failed: %w", err)
		}
		stream.Finish(err)
	}()

	return stream, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
