// Package srs implements the SM-2 spaced-repetition variant that
// schedules reviews over (word, cluster) progress: a quality mapping
// from answer outcome, the SM-2 update itself, an overdue-credit
// extension, and the mastery/archive decision.
//
// The package is pure and dependency-free: no persistence, no clock
// reads beyond what callers pass in. Store and session-composer code
// call these functions and persist the result.
package srs

import "time"

// overdueDampening is the fraction of the overdue period credited back
// into the input interval before SM-2 runs, for correct answers only.
const overdueDampening = 0.5

// State is the subset of progress.WordProgress the SM-2 update reads
// and writes.
type State struct {
	EasinessFactor float64
	IntervalDays   float64
	Repetitions    int
}

// DefaultState is the starting point for a pair with no prior reviews.
var DefaultState = State{EasinessFactor: 2.5, IntervalDays: 1.0, Repetitions: 0}

// QualityFromAnswer maps an answer outcome to the SM-2 quality score in
// [0,5].
//
//	wrong                  -> 1
//	correct, no timing     -> 4
//	correct, < 3s          -> 5
//	correct, < 8s          -> 4
//	correct, >= 8s         -> 3
func QualityFromAnswer(correct bool, responseTime *time.Duration) int {
	if !correct {
		return 1
	}
	if responseTime == nil {
		return 4
	}
	switch {
	case *responseTime < 3*time.Second:
		return 5
	case *responseTime < 8*time.Second:
		return 4
	default:
		return 3
	}
}

// clampQuality clamps q to [0,5].
func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 5 {
		return 5
	}
	return q
}

// Update applies the SM-2 algorithm to state for the given quality
// score, returning the new state. Quality is clamped to [0,5] before
// use.
func Update(quality int, state State) State {
	q := clampQuality(quality)

	newEF := state.EasinessFactor + (0.1 - float64(5-q)*(0.08+float64(5-q)*0.02))
	if newEF < 1.3 {
		newEF = 1.3
	}

	var newReps int
	var newInterval float64
	if q < 3 {
		newReps = 0
		newInterval = 1.0
	} else {
		newReps = state.Repetitions + 1
		switch newReps {
		case 1:
			newInterval = 1.0
		case 2:
			newInterval = 6.0
		default:
			newInterval = state.IntervalDays * newEF
		}
	}

	return State{EasinessFactor: newEF, IntervalDays: newInterval, Repetitions: newReps}
}

// ApplyOverdueCredit extends state's IntervalDays by half the number of
// days the pair was overdue, when quality indicates a correct answer
// (q>=3) and nextReview is in the past relative to now. Wrong answers
// are never credited — SM-2's own reset handles those.
func ApplyOverdueCredit(quality int, state State, nextReview, now time.Time) State {
	if clampQuality(quality) < 3 {
		return state
	}
	if !nextReview.Before(now) {
		return state
	}
	overdueDays := now.Sub(nextReview).Hours() / 24
	state.IntervalDays += overdueDays * overdueDampening
	return state
}

// Decision is the outcome of a single review: the new SRS state plus
// whether the pair should be archived as mastered.
type Decision struct {
	State            State
	NextReview       time.Time
	Archived         bool
	Reason           string
	ArchiveThreshold float64
}

// Record runs the full per-review pipeline: overdue credit (if
// applicable), the SM-2 update, and the archive decision, given the
// pair's prior state and next-review time (zero Time if the pair is
// new), the answer's quality score, the current time, and the
// configured archive threshold.
func Record(quality int, prior State, priorNextReview time.Time, now time.Time, archiveThresholdDays float64) Decision {
	effective := prior
	if !priorNextReview.IsZero() {
		effective = ApplyOverdueCredit(quality, prior, priorNextReview, now)
	}

	updated := Update(quality, effective)
	nextReview := now.Add(time.Duration(updated.IntervalDays * 24 * float64(time.Hour)))

	archived := false
	reason := ""
	if clampQuality(quality) >= 3 && updated.IntervalDays >= archiveThresholdDays {
		archived = true
		reason = "Mastered: review interval reached the archive threshold"
	}

	return Decision{
		State:            updated,
		NextReview:       nextReview,
		Archived:         archived,
		Reason:           reason,
		ArchiveThreshold: archiveThresholdDays,
	}
}
