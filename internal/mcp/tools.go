package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools wires the six session tools onto server using the SDK's
// generic AddTool, which infers each tool's JSON schema from the Go
// struct tags on its input/output types (github.com/google/jsonschema-go)
// rather than a hand-built schema map.
func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_session",
		Description: "Start a new vocabulary session, composing it from due reviews, new words, and reinforcement questions",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in StartSessionParams) (*sdkmcp.CallToolResult, QuestionResponse, error) {
		out, err := h.StartSession(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "answer_question",
		Description: "Submit an answer to the session's current question and receive the next one",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AnswerQuestionParams) (*sdkmcp.CallToolResult, AnswerResponse, error) {
		out, err := h.AnswerQuestion(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "session_progress",
		Description: "Report a session's current progress: answered count, correct count, and whether generation is still catching up",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionProgressParams) (*sdkmcp.CallToolResult, ProgressResponse, error) {
		out, err := h.SessionProgress(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "finish_session",
		Description: "End a session early and return its final summary",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in FinishSessionParams) (*sdkmcp.CallToolResult, SummaryResponse, error) {
		out, err := h.FinishSession(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "resume_session",
		Description: "Resume a previously started session and re-deliver its current question",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionProgressParams) (*sdkmcp.CallToolResult, QuestionResponse, error) {
		out, err := h.ResumeSession(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "chat",
		Description: "Ask a free-form question about a word or cluster; preempts any in-flight background question generation for the duration of the reply",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ChatParams) (*sdkmcp.CallToolResult, ChatResponse, error) {
		out, err := h.Chat(ctx, in)
		return nil, out, err
	})
}
