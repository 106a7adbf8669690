package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrInvalidRequest
	ErrClosed
	ErrConflict
	ErrCommitRace
	ErrUnauthorized
	ErrInternal
)

// ConflictError carries the conflict verdict and the ids of the appointments
// that collide with the proposed booking. It is expected and user-facing,
// never a system fault.
type ConflictError struct {
	Verdict        string      `json:"verdict"`
	AppointmentIDs []uuid.UUID `json:"appointment_ids"`
	AtCommit       bool        `json:"at_commit"`
}

func (e *ConflictError) Error() string {
	if e.AtCommit {
		return fmt.Sprintf("booking conflict discovered at commit (%s): %d colliding appointment(s)", e.Verdict, len(e.AppointmentIDs))
	}
	return fmt.Sprintf("booking conflict (%s): %d colliding appointment(s)", e.Verdict, len(e.AppointmentIDs))
}

func (e *ConflictError) Code() ErrorCode {
	if e.AtCommit {
		return ErrCommitRace
	}
	return ErrConflict
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewInvalidRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Message: message,
		Err:     err,
	}
}

// NewClosed marks a date with zero open intervals for a clinic. It is not
// fixable by forcing, unlike a conflict.
func NewClosed(message string) *AppError {
	return &AppError{
		Code:    ErrClosed,
		Message: message,
	}
}

func NewConflict(verdict string, ids []uuid.UUID) *ConflictError {
	return &ConflictError{Verdict: verdict, AppointmentIDs: ids}
}

// NewCommitRace marks a conflict discovered only inside the commit
// transaction, after the caller believed the slot was free.
func NewCommitRace(verdict string, ids []uuid.UUID) *ConflictError {
	return &ConflictError{Verdict: verdict, AppointmentIDs: ids, AtCommit: true}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// IsCode reports whether err wraps an AppError or ConflictError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	var confErr *ConflictError
	if errors.As(err, &confErr) {
		return confErr.Code() == code
	}
	return false
}

// AsConflict extracts a ConflictError if err carries one.
func AsConflict(err error) (*ConflictError, bool) {
	var confErr *ConflictError
	if errors.As(err, &confErr) {
		return confErr, true
	}
	return nil, false
}
