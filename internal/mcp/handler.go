package mcp

import (
	"context"
	"strconv"
	"strings"

	"github.com/vocabtrainer/server/internal/generation"
	"github.com/vocabtrainer/server/internal/transport"
)

// resolveSessionID falls back to the ambient session id stashed by
// sessionMiddleware (HTTP header or stdio metadata) when the caller
// omitted session_id from the tool arguments, so a client doesn't have
// to repeat it on every call within one transport session.
func resolveSessionID(ctx context.Context, explicit int64) int64 {
	if explicit != 0 {
		return explicit
	}
	if v, err := strconv.ParseInt(getSessionID(ctx), 10, 64); err == nil {
		return v
	}
	return explicit
}

// Handler adapts the core Dispatcher to per-tool typed methods that the
// SDK's generic tool registration (tools.go) calls directly.
type Handler struct {
	dispatcher *transport.Dispatcher
}

// NewHandler creates a new MCP handler over the core Dispatcher.
func NewHandler(dispatcher *transport.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) StartSession(ctx context.Context, _ StartSessionParams) (QuestionResponse, error) {
	snap, err := h.dispatcher.StartSession(ctx)
	if err != nil {
		return QuestionResponse{}, mapError(err)
	}
	return QuestionResponse{Question: snap}, nil
}

func (h *Handler) AnswerQuestion(ctx context.Context, req AnswerQuestionParams) (AnswerResponse, error) {
	result, err := h.dispatcher.AnswerQuestion(ctx, resolveSessionID(ctx, req.SessionID), req.SelectedIndex, req.ResponseTimeMs)
	if err != nil {
		return AnswerResponse{}, mapError(err)
	}
	return AnswerResponse{Result: result}, nil
}

func (h *Handler) SessionProgress(ctx context.Context, req SessionProgressParams) (ProgressResponse, error) {
	p, err := h.dispatcher.SessionProgress(ctx, resolveSessionID(ctx, req.SessionID))
	if err != nil {
		return ProgressResponse{}, mapError(err)
	}
	return ProgressResponse{Progress: p}, nil
}

func (h *Handler) FinishSession(ctx context.Context, req FinishSessionParams) (SummaryResponse, error) {
	summary, err := h.dispatcher.FinishSession(ctx, resolveSessionID(ctx, req.SessionID))
	if err != nil {
		return SummaryResponse{}, mapError(err)
	}
	return SummaryResponse{Summary: summary}, nil
}

func (h *Handler) ResumeSession(ctx context.Context, req SessionProgressParams) (QuestionResponse, error) {
	snap, err := h.dispatcher.ResumeSession(ctx, resolveSessionID(ctx, req.SessionID))
	if err != nil {
		return QuestionResponse{}, mapError(err)
	}
	return QuestionResponse{Question: snap}, nil
}

// Chat streams a reply from the generation backend, preempting any
// in-flight background question build for the duration, and assembles
// the full text since MCP tool calls are request/response.
func (h *Handler) Chat(ctx context.Context, req ChatParams) (ChatResponse, error) {
	chunks, err := h.dispatcher.ChatStream(ctx, generation.CompletionRequest{
		Messages: []generation.Message{{Role: "user", Content: req.Message}},
	})
	if err != nil {
		return ChatResponse{}, mapError(err)
	}

	var reply strings.Builder
	for chunk := range chunks {
		reply.WriteString(chunk.Text)
	}
	return ChatResponse{Reply: reply.String()}, nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
