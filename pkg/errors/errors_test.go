package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQoreError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *QoreError
		expected string
	}{
		{
			name: "error without cause",
			err: &QoreError{
				Code:    CodeInvalidRequest,
				Message: "invalid input",
			},
			expected: "INVALID_REQUEST: invalid input",
		},
		{
			name: "error with cause",
			err: &QoreError{
				Code:    CodeMetadataFailed,
				Message: "failed to fetch collections",
				Cause:   fmt.Errorf("connection lost"),
			},
			expected: "METADATA_FAILED: failed to fetch collections (caused by: connection lost)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestQoreError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(cause, CodeExecutionFailed, "statement execution failed")

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, &QoreError{Code: CodeExecutionFailed}))
}

func TestQoreError_Is(t *testing.T) {
	err1 := &QoreError{Code: CodeReadOnlyBlocked, Message: "connection is read-only"}
	err2 := &QoreError{Code: CodeReadOnlyBlocked, Message: "different message"}
	err3 := &QoreError{Code: CodePolicyBlocked, Message: "blocked"}
	stdErr := fmt.Errorf("standard error")

	assert.True(t, err1.Is(err2), "errors with same code should match")
	assert.False(t, err1.Is(err3), "errors with different codes should not match")
	assert.False(t, err1.Is(stdErr), "layer error should not match standard error")
}

func TestQoreError_WithDetail(t *testing.T) {
	err := New(CodeConfirmation, "typed confirmation does not match").
		WithDetail("expected_length", 6)

	assert.Equal(t, 6, err.Details["expected_length"])
}

func TestWrap_NilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "nothing"))
	assert.Nil(t, Wrapf(nil, CodeInternal, "nothing %d", 1))
}

func TestIsBlocked(t *testing.T) {
	assert.True(t, IsBlocked(ErrReadOnlyBlocked))
	assert.True(t, IsBlocked(ErrPolicyBlocked))
	assert.False(t, IsBlocked(ErrEmptyStatement))
	assert.False(t, IsBlocked(fmt.Errorf("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeSessionUnknown, GetCode(ErrSessionUnknown))
	assert.Equal(t, CodeInternal, GetCode(fmt.Errorf("plain")))

	wrapped := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "statement cannot be empty", GetMessage(ErrEmptyStatement))
	assert.Equal(t, "plain", GetMessage(fmt.Errorf("plain")))
}
