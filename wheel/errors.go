package wheel

import "errors"

// Error kinds surfaced by the core. The transport layer matches these with
// errors.Is to pick a response status; nothing in the core retries or
// swallows them.
var (
	// ErrInvalidConfiguration reports a malformed threshold configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotFound reports an unknown session id or token id.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange reports a landing angle outside [0, 360] or one that
	// matched no wedge.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidState reports an operation against inconsistent state, such
	// as advancing with no pending distribution or resampling from an empty
	// excluded set.
	ErrInvalidState = errors.New("invalid state")

	// ErrSessionTerminated reports an advance against a session that already
	// reached its stop condition.
	ErrSessionTerminated = errors.New("session terminated")
)
