package buffer

import "errors"

// ErrShutdown is returned by Check when the Scheduler has already begun
// shutting down and will not accept new tracked tasks.
var ErrShutdown = errors.New("buffer scheduler is shutting down")
