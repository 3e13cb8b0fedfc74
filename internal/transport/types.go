// Package transport defines the wire-facing DTOs the session composer
// hands to callers and the Dispatcher that MCP tool
// handlers use to reach the core without depending on its internals
// directly.
package transport

// ChoiceDetail is the per-choice annotation parallel to a
// QuestionSnapshot's Choices, in delivery order.
type ChoiceDetail struct {
	Word        string `json:"word"`
	BaseWord    string `json:"base_word"`
	Meaning     string `json:"meaning"`
	Distinction string `json:"distinction"`
	Why         string `json:"why"`
}

// Progress is the session-progress fragment embedded in a
// QuestionSnapshot and returned standalone by the progress tool/stream.
type Progress struct {
	Answered   int  `json:"answered"`
	Correct    int  `json:"correct"`
	Ready      int  `json:"ready"`
	Target     int  `json:"target"`
	Generating bool `json:"generating"`
	HasNext    bool `json:"has_next"`
}

// QuestionSnapshot is the wire contract for a delivered question:
// shuffled choices, re-indexed correct_index, and reordered
// choice_details, plus progress metadata.
type QuestionSnapshot struct {
	SessionID       int64          `json:"session_id"`
	ID              string         `json:"id"`
	QuestionType    string         `json:"question_type"`
	Stem            string         `json:"stem"`
	Choices         [4]string      `json:"choices"`
	ChoiceDetails   [4]ChoiceDetail `json:"choice_details"`
	CorrectIndex    int            `json:"correct_index"`
	CorrectWord     string         `json:"correct_word"`
	Explanation     string         `json:"explanation"`
	ContextSentence string         `json:"context_sentence"`
	ClusterTitle    string         `json:"cluster_title"`
	IsNew           bool           `json:"is_new"`
	AudioHash       string         `json:"audio_hash,omitempty"`
	Progress        Progress       `json:"progress"`
}

// ArchiveInfo describes the archive decision made while processing an
// answer.
type ArchiveInfo struct {
	Archived         bool    `json:"archived"`
	Reason           string  `json:"reason,omitempty"`
	QuestionID       string  `json:"question_id"`
	IntervalDays     float64 `json:"interval_days"`
	ArchiveThreshold float64 `json:"archive_threshold"`
}

// AnswerResult is the wire contract for an answer outcome.
type AnswerResult struct {
	Correct         bool        `json:"correct"`
	CorrectIndex    int         `json:"correct_index"`
	CorrectWord     string      `json:"correct_word"`
	Explanation     string      `json:"explanation"`
	ContextSentence string      `json:"context_sentence"`
	AudioHash       string      `json:"audio_hash,omitempty"`
	Archive         ArchiveInfo `json:"archive"`
	SessionProgress Progress    `json:"session_progress"`
	SessionComplete bool        `json:"session_complete"`
	NextQuestion    *QuestionSnapshot `json:"next_question,omitempty"`
	Summary         *SessionSummary   `json:"summary,omitempty"`
}

// SessionSummary is the final report delivered when a session ends,
// normally or early.
type SessionSummary struct {
	SessionID        int64 `json:"session_id"`
	QuestionsTotal   int   `json:"questions_total"`
	QuestionsCorrect int   `json:"questions_correct"`
}

// ProgressSnapshot is one tick of the live-progress stream: a session's
// Progress at a point in time, tagged with its session so a consumer
// that merges several subscriptions can tell them apart.
type ProgressSnapshot struct {
	SessionID int64    `json:"session_id"`
	Progress  Progress `json:"progress"`
}
