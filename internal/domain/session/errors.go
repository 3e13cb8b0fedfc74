package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist or has
	// already ended and been removed from the in-memory map.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoCurrentQuestion indicates a session has no question currently
	// served — either nothing could be composed at Start, or Answer was
	// called without an outstanding question.
	ErrNoCurrentQuestion = errors.New("no current question")
)
