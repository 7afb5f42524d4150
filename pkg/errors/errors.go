// Package errors provides standardized error types for the safety layer.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the safety and metadata layer.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeReadOnlyBlocked = "READ_ONLY_BLOCKED"
	CodePolicyBlocked   = "POLICY_BLOCKED"
	CodeMetadataFailed  = "METADATA_FAILED"
	CodeExecutionFailed = "EXECUTION_FAILED"
	CodeSessionUnknown  = "SESSION_UNKNOWN"
	CodeConfirmation    = "CONFIRMATION_MISMATCH"
	CodeInternal        = "INTERNAL_ERROR"
)

// QoreError represents a layer error with code, message, and optional details.
type QoreError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *QoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *QoreError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by code.
func (e *QoreError) Is(target error) bool {
	t, ok := target.(*QoreError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a single detail to the error.
func (e *QoreError) WithDetail(key string, value interface{}) *QoreError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common errors
var (
	ErrEmptyStatement  = &QoreError{Code: CodeInvalidRequest, Message: "statement cannot be empty"}
	ErrSessionUnknown  = &QoreError{Code: CodeSessionUnknown, Message: "session is not connected"}
	ErrReadOnlyBlocked = &QoreError{Code: CodeReadOnlyBlocked, Message: "connection is read-only"}
	ErrPolicyBlocked   = &QoreError{Code: CodePolicyBlocked, Message: "blocked by safety policy"}

	// ErrConfirmationMismatch blocks the Confirmed transition; it is a
	// refusal, not a failure of the submission.
	ErrConfirmationMismatch = &QoreError{Code: CodeConfirmation, Message: "typed confirmation does not match the expected label"}
)

// New creates a new QoreError with the given code and message.
func New(code, message string) *QoreError {
	return &QoreError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a QoreError.
func Wrap(err error, code, message string) *QoreError {
	if err == nil {
		return nil
	}
	return &QoreError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code, format string, args ...interface{}) *QoreError {
	if err == nil {
		return nil
	}
	return &QoreError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsBlocked checks if an error is a read-only or policy block.
func IsBlocked(err error) bool {
	code := GetCode(err)
	return code == CodeReadOnlyBlocked || code == CodePolicyBlocked
}

// IsMetadataFailed checks if an error came from a metadata fetch.
func IsMetadataFailed(err error) bool {
	return GetCode(err) == CodeMetadataFailed
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return GetCode(err) == CodeNotFound
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var qe *QoreError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var qe *QoreError
	if errors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}
