package session

import (
	"errors"
	"fmt"
)

// ErrNotYourTurn is the invalid-move reason when the requesting participant
// does not hold the current turn slot.
var ErrNotYourTurn = errors.New("not your turn")

// ErrStopped is returned when an operation is submitted to an actor whose
// serialization loop has exited.
var ErrStopped = errors.New("session actor stopped")

// ErrNotReady indicates an operation before session initialization.
// Recoverable by retrying after a successful initialize.
type ErrNotReady struct {
}

func (e *ErrNotReady) Error() string {
	return "session not initialized"
}

func IsNotReady(err error) bool {
	_, ok := err.(*ErrNotReady)
	return ok
}

// ErrSessionFull indicates a join on a session that already has two
// participants. It is an expected outcome, not a server error.
type ErrSessionFull struct {
}

func (e *ErrSessionFull) Error() string {
	return "session is full"
}

func IsSessionFull(err error) bool {
	_, ok := err.(*ErrSessionFull)
	return ok
}

// ErrInvalidMove is the single rejection category the boundary sees for a
// bad move. Reason keeps the finer distinction (out of range, occupied,
// wrong turn, game over) for logs and tests.
type ErrInvalidMove struct {
	Reason error
}

func (e *ErrInvalidMove) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("invalid move: %v", e.Reason)
	}
	return "invalid move"
}

func IsInvalidMove(err error) bool {
	_, ok := err.(*ErrInvalidMove)
	return ok
}

// ErrPersistenceFailure indicates the durable write for a mutation did not
// succeed. The mutation is not committed and nothing is broadcast.
type ErrPersistenceFailure struct {
	Cause error
}

func (e *ErrPersistenceFailure) Error() string {
	return fmt.Sprintf("failed to persist session: %v", e.Cause)
}

func IsPersistenceFailure(err error) bool {
	_, ok := err.(*ErrPersistenceFailure)
	return ok
}
