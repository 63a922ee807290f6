package session

import "errors"

var (
	// ErrInvalidArgument marks a report rejected before any state mutation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAccountDisabled marks an activity report from a disabled account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrSessionNotFound marks a playback report for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPersistence wraps a write rejected by the backing store. In-memory
	// session state already mutated is not rolled back.
	ErrPersistence = errors.New("persistence failure")
)
