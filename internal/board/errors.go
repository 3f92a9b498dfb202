package board

import (
	"errors"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/domain"
)

// Sentinel errors for the board package.
var (
	ErrNotLoaded          = errors.New("board: not loaded")
	ErrStaleMove          = errors.New("board: card is not at the given source position")
	ErrInvalidIndex       = errors.New("board: index out of range")
	ErrDeleteNotConfirmed = errors.New("board: delete not confirmed")
)

// LoadError is returned when the board could not be fetched from the store.
// The board is left empty and refuses writes until a later Load succeeds.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "board: load failed: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ValidationError is returned before any store call when the input is rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "board: invalid input: " + e.Err.Error()
	}
	return "board: invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when a store write failed after the local
// state was already changed. Resynced tells whether the follow-up reload
// succeeded; if it did not, the board is unloaded.
type PersistenceError struct {
	Op       string
	CardID   uuid.UUID
	Resynced bool
	Err      error
}

func (e *PersistenceError) Error() string {
	msg := "board: " + e.Op + " failed"
	if e.CardID != uuid.Nil {
		msg += " for card " + e.CardID.String()
	}
	return msg + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func validationFromPayload(err error) *ValidationError {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Err: err}
	}
	return &ValidationError{Err: err}
}
