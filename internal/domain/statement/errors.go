package statement

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile         = errors.New("no file uploaded")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds upload limit")
	ErrEmptyDocument       = errors.New("document is empty")
	ErrNoTransactions      = errors.New("no valid transactions could be extracted")
	ErrNoTransactionsInput = errors.New("feature aggregation requires at least one transaction")
)

// ValidationError rejects an upload before any parsing happens.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseError reports that a document could not yield usable content.
type ParseError struct {
	Format  string
	Message string
	Hint    string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse %s: %s: %v", e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ComputationError signals a pipeline defect, such as aggregating an empty
// transaction sequence.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// ExternalServiceError wraps a failed call to an advisory collaborator. It is
// always recovered by the caller.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationError wrapping a sentinel.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// NewParseError builds a ParseError wrapping a sentinel.
func NewParseError(format, message, hint string, err error) *ParseError {
	return &ParseError{Format: format, Message: message, Hint: hint, Err: err}
}
