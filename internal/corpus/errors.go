package corpus

import (
	"errors"
	"fmt"
)

// Error kinds. Every concrete failure in the build and query paths wraps exactly one.
var (
	// ErrValidation marks fatal input or state errors. No partial output is produced.
	ErrValidation = errors.New("validation error")

	// ErrExternal marks failures of the embedding or generation collaborators.
	ErrExternal = errors.New("external service error")
)

// Validation errors shared across packages.
var (
	ErrUnsortedPages     = fmt.Errorf("%w: pages are not in strictly ascending order", ErrValidation)
	ErrEmptyIndex        = fmt.Errorf("%w: vector index is empty", ErrValidation)
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", ErrValidation)
	ErrLengthMismatch    = fmt.Errorf("%w: vector and metadata counts differ", ErrValidation)
)

// ExternalError wraps a failed call to a remote collaborator.
type ExternalError struct {
	Op         string // e.g. "embed", "generate"
	StatusCode int    // 0 when the request never got a response
	Retryable  bool
	Err        error
}

func (e *ExternalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// Is reports ErrExternal so callers can branch on the kind without a type assertion.
func (e *ExternalError) Is(target error) bool { return target == ErrExternal }

// External wraps err as a non-retryable external failure. Nil stays nil.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	var ext *ExternalError
	if errors.As(err, &ext) {
		return err
	}
	return &ExternalError{Op: op, Err: err}
}

// IsRetryable reports whether err is an external failure worth retrying.
func IsRetryable(err error) bool {
	var ext *ExternalError
	return errors.As(err, &ext) && ext.Retryable
}

// Truncate shortens s to n bytes for log and error messages.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
