package generation

import "errors"

var (
	// ErrBackendUnavailable is returned when the configured backend
	// cannot be reached or refuses the request outright.
	ErrBackendUnavailable = errors.New("generation backend unavailable")

	// ErrEmptyResponse is returned when the backend responds with no
	// usable content.
	ErrEmptyResponse = errors.New("generation backend returned an empty response")
)
