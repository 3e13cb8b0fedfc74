package builder

import "errors"

var (
	// ErrNoEligibleClusters is returned when the Store has no cluster
	// with 4 or more entries to draw a question from.
	ErrNoEligibleClusters = errors.New("no eligible clusters for question generation")

	// ErrStageOneFailed is returned when stem+choices generation
	// exhausts its retries without producing a valid result.
	ErrStageOneFailed = errors.New("stage 1 generation failed validation after retries")
)
