package engine

import "errors"

// Sentinel errors for rejected operations. None of these leave the record
// mutated; callers match with errors.Is.
var (
	// ErrWrongCredential is returned when a submitted PIN matches neither
	// the stored PIN nor the master PIN.
	ErrWrongCredential = errors.New("wrong credential")

	// ErrNotYourTurn is returned when a start is submitted under a name
	// that does not match the queue head.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrInvalidInput is returned for malformed or out-of-range fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMachineBusy is returned when a start targets a machine whose
	// occupant session is still running.
	ErrMachineBusy = errors.New("machine busy")

	// ErrSkipNotAllowed is returned when a skip targets a queue head whose
	// claim window is still open, or a queue too short to promote from.
	ErrSkipNotAllowed = errors.New("skip not allowed")
)
