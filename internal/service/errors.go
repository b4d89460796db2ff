package service

import "errors"

// Service errors form the taxonomy transports map onto status codes. Callers
// test with errors.Is; everything else is an internal failure.
var (
	// ErrNotFound indicates the referenced session or question does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the operation conflicts with the session's
	// lifecycle state, such as recording into a completed session.
	ErrInvalidState = errors.New("invalid session state")
	// ErrInvalidInput indicates the caller supplied malformed data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable indicates a required backend is unreachable. Retrying
	// the same call later may succeed.
	ErrUnavailable = errors.New("backend unavailable")
)
