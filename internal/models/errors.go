package models

import "errors"

var (
	// ErrNotFound is returned when a referenced profile or match does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition is returned when required state is missing, e.g. no location set.
	ErrPrecondition = errors.New("precondition failed")
	// ErrInvalidOperation is returned for self-referential or otherwise nonsensical requests.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrConflict signals that a concurrent writer created the same active match first.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when a request body fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicate is returned when a unique profile field (email, phone) is already taken.
	ErrDuplicate = errors.New("already in use")
)
