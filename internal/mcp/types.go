package mcp

import "github.com/vocabtrainer/server/internal/transport"

// StartSessionParams takes no input; a session always composes from
// whatever is currently ready in the Store.
type StartSessionParams struct{}

// AnswerQuestionParams is the input for answer_question.
type AnswerQuestionParams struct {
	SessionID      int64 `json:"session_id"`
	SelectedIndex  int   `json:"selected_index"`
	ResponseTimeMs int64 `json:"response_time_ms,omitempty"`
}

// SessionProgressParams is the input for session_progress.
type SessionProgressParams struct {
	SessionID int64 `json:"session_id"`
}

// FinishSessionParams is the input for finish_session.
type FinishSessionParams struct {
	SessionID int64 `json:"session_id"`
}

// ChatParams is the input for chat, a free-form interactive exchange
// with the generation backend that preempts background question
// builds for the duration of the request.
type ChatParams struct {
	Message string `json:"message"`
}

// ChatResponse is the complete chat reply, assembled from the streamed
// chunks before returning (MCP tool calls are request/response; the
// stream is internal plumbing between the Dispatcher and the backend).
type ChatResponse struct {
	Reply string `json:"reply"`
}

// QuestionResponse wraps a transport.QuestionSnapshot as an MCP tool
// result.
type QuestionResponse struct {
	Question *transport.QuestionSnapshot `json:"question"`
}

// AnswerResponse wraps a transport.AnswerResult as an MCP tool result.
type AnswerResponse struct {
	Result *transport.AnswerResult `json:"result"`
}

// ProgressResponse wraps a transport.Progress as an MCP tool result.
type ProgressResponse struct {
	Progress *transport.Progress `json:"progress"`
}

// SummaryResponse wraps a transport.SessionSummary as an MCP tool result.
type SummaryResponse struct {
	Summary *transport.SessionSummary `json:"summary"`
}
