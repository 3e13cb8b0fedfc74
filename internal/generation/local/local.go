// Package local implements generation.Provider against an
// OpenAI-chat-compatible endpoint (OpenAI itself, or a local server such
// as Ollama/LM Studio exposing the same API shape).
package local

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vocabtrainer/server/internal/generation"
)

// Provider speaks the OpenAI chat-completions API.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a Provider for model, talking to baseURL if set (empty
// uses OpenAI's default endpoint). apiKey may be empty for local servers
// that don't require authentication.
func New(baseURL, apiKey, model string) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Provider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *Provider) Complete(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrBackendUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, generation.ErrEmptyResponse
	}
	return &generation.CompletionResponse{Content: resp.Choices[0].Message.Content}, nil
}

func (p *Provider) StreamCompletion(ctx context.Context, req generation.CompletionRequest) (<-chan generation.Chunk, error) {
	r := p.buildRequest(req)
	r.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrBackendUnavailable, err)
	}

	ch := make(chan generation.Chunk)
	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				if err.Error() != "EOF" {
					select {
					case ch <- generation.Chunk{FinishReason: "error"}:
					case <-ctx.Done():
					}
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]
			chunk := generation.Chunk{Text: choice.Delta.Content}
			if choice.FinishReason != "" {
				chunk.FinishReason = string(choice.FinishReason)
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (p *Provider) buildRequest(req generation.CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	return openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
}

var _ generation.Provider = (*Provider)(nil)
