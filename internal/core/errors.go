package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Handlers map these onto HTTP
// statuses with errors.Is; storage wraps driver failures into
// ErrStorageConflict when a retry could help.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state")
	ErrStorageConflict    = errors.New("storage conflict")
	ErrInvariantViolation = errors.New("arithmetic invariant violation")
)

// NotFoundf wraps ErrNotFound with the missing entity named.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidInputf wraps ErrInvalidInput with the violated field named.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// InvalidStatef wraps ErrInvalidState for workflow transitions attempted
// from a terminal status or lost to a concurrent approval.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// InvariantViolationf wraps ErrInvariantViolation. Callers must abort the
// surrounding transaction; the ledger never silently corrects itself.
func InvariantViolationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
