package ledger

import "fmt"

// ValidationError reports malformed or unbalanced input. The caller can
// correct the request and retry safely.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

// ConflictError reports a deletion blocked by referential use, e.g. deleting
// an account that still has splits.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ConfigurationError reports missing required seed data, such as the
// reconciliation tags. It is fatal, not per-request recoverable.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// StorageError wraps an underlying database failure. The core never retries;
// the gateway decides retry policy.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storagef wraps err as a StorageError for the named operation.
func Storagef(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
