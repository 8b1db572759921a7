package customerr

import "fmt"

// ValidationError reports a user-correctable problem with a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError means the record exists but belongs to another owner.
// It deliberately carries no detail about the record.
type AuthorizationError struct{}

func (e *AuthorizationError) Error() string {
	return "access denied"
}

// NotFoundError means the referenced id does not exist under any owner.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ConflictError reports a best-effort duplicate detection, e.g. a second
// budget for the same category.
type ConflictError struct {
	Err string
}

func (e *ConflictError) Error() string {
	return e.Err
}

// StorageError wraps a persistence failure after the attempted change has
// been rolled back. Safe to retry.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
