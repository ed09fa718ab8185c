package service

import (
	"errors"
	"fmt"

	"velvethour/internal/pairing"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrNoSession           = errors.New("no session in progress")
	ErrSessionInProgress   = errors.New("a session is already in progress")
	ErrAlreadyRun          = errors.New("a completed session already exists for this event")
	ErrNotEnoughPresent    = errors.New("not enough participants present")
	ErrInvalidTransition   = errors.New("action not allowed in the current session state")
	ErrRoundLimit          = errors.New("all configured rounds have been played")
	ErrNothingToStart      = errors.New("manual assignment has no complete zones")
	ErrInvalidConfig       = errors.New("session config out of allowed range")
	ErrMatchNotFound       = errors.New("match not found")
	ErrNotInMatch          = errors.New("user is not part of this match")
	ErrDuplicateSubmission = errors.New("feedback already submitted for this match")
)

// ManualValidationError carries the structured violations of a rejected
// manual assignment so handlers can surface each one, not a generic failure.
type ManualValidationError struct {
	Result pairing.ValidationResult
}

func (e *ManualValidationError) Error() string {
	if len(e.Result.Violations) == 0 {
		return "manual assignment invalid"
	}
	return fmt.Sprintf("manual assignment invalid: %s", e.Result.Violations[0].Message)
}
