// Package fault defines the error taxonomy shared by every pipeline component.
//
// A ValidationError means the caller's input violates a contract and the
// request must not be repeated unchanged. A ProviderError means an AWS
// dependency failed or rejected the call; whether a retry makes sense is the
// caller's decision. Anything else is treated as an internal error by the
// response layer.
package fault

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ValidationError ...
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProviderError wraps a failed call to an AWS service, keeping the operation
// name for logs and the original error for unwrapping.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("%s: %s: %s", e.Op, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError ...
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsProvider reports whether err is (or wraps) a ProviderError.
func IsProvider(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}
