package service

import (
	"errors"
)

// Error taxonomy shared by the submission service, the lifecycle engine and
// the HTTP layer. Collaborator failures are marked with these via pkg/errs,
// so match with errs.Is rather than comparing directly.
var (
	// ErrValidation matches every input error, including the two below
	ErrValidation = errors.New("validation failed")

	ErrInvalidDecision  error = &validationError{msg: "decision must be accepted, sent_back or rejected"}
	ErrCommentsRequired error = &validationError{msg: "comments are required when sending back or rejecting"}

	ErrNotFound       = errors.New("request not found")
	ErrInvalidToken   = errors.New("invalid decision token")
	ErrAlreadyDecided = errors.New("request already decided")

	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrNotifierUnavailable = errors.New("notifier unavailable")

	ErrUnauthenticated = errors.New("identity required")
	ErrForbidden       = errors.New("not permitted")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func (e *validationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation returns an error that matches ErrValidation and carries msg
func Validation(msg string) error {
	return &validationError{msg: msg}
}
