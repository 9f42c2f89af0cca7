package models

import (
	"errors"
	"fmt"
)

// The four recoverable error kinds every mutating operation can return, plus
// the authorization failure. Callers branch on kind with the Is* predicates;
// the HTTP layer maps kinds to status codes. A StoreError always means the
// whole operation aborted atomically and is safe to retry.

// ValidationError rejects bad input before any store write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError rejects an operation that was already done or would violate
// a uniqueness invariant. Callers should treat it as "already done" rather
// than retry blindly.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing member, transaction, invoice or group.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NotFoundf builds a NotFoundError from a format string.
func NotFoundf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// PermissionError reports that the calling actor is not allowed to perform
// the operation.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// Permissionf builds a PermissionError from a format string.
func Permissionf(format string, args ...any) error {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a storage-level failure. The wrapped cause is preserved
// for logging; the operation it aborted applied nothing.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Storef wraps err as a StoreError for the named operation.
func Storef(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsPermission reports whether err is a PermissionError.
func IsPermission(err error) bool {
	var e *PermissionError
	return errors.As(err, &e)
}
