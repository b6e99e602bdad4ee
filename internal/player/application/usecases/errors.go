package usecases

import "errors"

// Command-level errors for the player core. Every failure is returned to
// the caller and simultaneously published on the error channel; none is
// process-fatal.
var (
	// ErrInvalidQueue is returned when a queue load produced no playable
	// entries after filtering. The previous session state is untouched.
	ErrInvalidQueue = errors.New("queue load produced no playable tracks")

	// ErrNothingToPlay is returned when play is requested with an empty queue.
	ErrNothingToPlay = errors.New("nothing to play")

	// ErrEngineUnavailable is returned when a command requiring the
	// external engine times out or the connection is gone. The session
	// remains usable once the engine returns.
	ErrEngineUnavailable = errors.New("engine collaborator unavailable")

	// ErrSyncProtocolViolation marks an out-of-order phase report from
	// the scanning collaborator. The run continues best-effort.
	ErrSyncProtocolViolation = errors.New("sync phase reported out of order")
)
