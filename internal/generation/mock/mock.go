// Package mock provides a test double for the generation.Provider
// interface.
package mock

import (
	"context"
	"sync"

	"github.com/vocabtrainer/server/internal/generation"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	Ctx context.Context
	Req generation.CompletionRequest
}

// Provider is a mock implementation of generation.Provider. Responses
// are consumed in order from Responses; once exhausted, the last entry
// repeats. Zero value returns ErrEmptyResponse.
type Provider struct {
	mu sync.Mutex

	// Responses is the queue of canned responses for Complete, consumed
	// in order. StreamCompletion emits each response's Content as a
	// single chunk.
	Responses []string

	// Err, if non-nil, is returned instead of consuming Responses.
	Err error

	next  int
	Calls []CompleteCall
}

func (p *Provider) Complete(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})

	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Responses) == 0 {
		return nil, generation.ErrEmptyResponse
	}

	idx := p.next
	if idx >= len(p.Responses) {
		idx = len(p.Responses) - 1
	} else {
		p.next++
	}
	return &generation.CompletionResponse{Content: p.Responses[idx]}, nil
}

func (p *Provider) StreamCompletion(ctx context.Context, req generation.CompletionRequest) (<-chan generation.Chunk, error) {
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan generation.Chunk, 2)
	go func() {
		defer close(ch)
		select {
		case <-ctx.Done():
			return
		case ch <- generation.Chunk{Text: resp.Content}:
		}
		select {
		case <-ctx.Done():
		case ch <- generation.Chunk{FinishReason: "stop"}:
		}
	}()
	return ch, nil
}

// Reset clears recorded calls and rewinds the response queue.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
	p.next = 0
}

var _ generation.Provider = (*Provider)(nil)
