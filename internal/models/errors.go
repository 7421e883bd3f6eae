package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the domain matches exactly one of these
// through errors.Is, which is what the HTTP layer uses to pick a status code.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPersistence        = errors.New("persistence failure")
	ErrInvariantViolation = errors.New("invariant violation")
)

// ErrConcurrencyConflict is returned by stores when an optimistic version check
// fails. It is a Conflict, and the lending workflow retries it once.
var ErrConcurrencyConflict = fmt.Errorf("%w: concurrent modification detected", ErrConflict)

// ErrorKind classifies an error for the boundary layer.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindPersisting ErrorKind = "persistence"
	KindInvariant  ErrorKind = "invariant"
	KindUnknown    ErrorKind = "unknown"
)

// KindOf returns the kind of err, or KindUnknown if it carries none.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariant
	case errors.Is(err, ErrPersistence):
		return KindPersisting
	default:
		return KindUnknown
	}
}

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a missing book, borrower or borrowing.
type NotFoundError struct {
	Resource string
	ID       int32
}

func NewNotFoundError(resource string, id int32) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// BookNotAvailableError is returned when a book has no copies left to lend.
type BookNotAvailableError struct {
	BookID int32
	Title  string
}

func (e *BookNotAvailableError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("book '%s' is not available for borrowing", e.Title)
	}
	return fmt.Sprintf("book with ID %d is not available for borrowing", e.BookID)
}

func (e *BookNotAvailableError) Is(target error) bool { return target == ErrConflict }

// BorrowLimitExceededError is returned when a borrower already holds as many
// books as their limit allows.
type BorrowLimitExceededError struct {
	BorrowerID   int32
	MaxLimit     int32
	CurrentCount int32
}

func (e *BorrowLimitExceededError) Error() string {
	return fmt.Sprintf("borrower %d has reached their borrow limit. Maximum: %d, Current: %d",
		e.BorrowerID, e.MaxLimit, e.CurrentCount)
}

func (e *BorrowLimitExceededError) Is(target error) bool { return target == ErrConflict }

// BorrowerInactiveError is returned when a deactivated borrower tries to borrow.
type BorrowerInactiveError struct {
	BorrowerID int32
}

func (e *BorrowerInactiveError) Error() string {
	return fmt.Sprintf("borrower %d is not active", e.BorrowerID)
}

func (e *BorrowerInactiveError) Is(target error) bool { return target == ErrConflict }

// AlreadyReturnedError is returned when a borrowing is returned twice.
type AlreadyReturnedError struct {
	BorrowingID int32
}

func (e *AlreadyReturnedError) Error() string {
	return fmt.Sprintf("borrowing %d has already been returned", e.BorrowingID)
}

func (e *AlreadyReturnedError) Is(target error) bool { return target == ErrConflict }

// ConflictError is a business-rule conflict without a dedicated type.
type ConflictError struct {
	Message string
}

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InvariantError signals state that should be impossible, such as returning
// more copies than a book owns. It indicates corrupt data, not bad input.
type InvariantError struct {
	Entity  string
	ID      int32
	Message string
}

func NewInvariantError(entity string, id int32, message string) *InvariantError {
	return &InvariantError{Entity: entity, ID: id, Message: message}
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Message)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariantViolation }

// PersistenceError wraps a store failure that has no domain meaning.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
