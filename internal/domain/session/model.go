// Package session assembles training sessions from the review, new, and
// reinforcement pools, tracks per-session in-memory state, and persists
// the durable session summary.
package session

import "time"

// Session is the durable row the Store keeps for a training session.
// The richer in-memory state a live session carries (the shuffled
// question list, seen-sets, current index) lives in LiveSession and is
// never persisted directly.
type Session struct {
	ID               int64
	StartedAt        time.Time
	EndedAt          *time.Time
	QuestionsTotal   int
	QuestionsCorrect int
}

// Ended reports whether the session has been finished (normally or
// early).
func (s Session) Ended() bool {
	return s.EndedAt != nil
}
