package ledger

import (
	"errors"
	"fmt"
)

// ValidationError reports arithmetic or shape problems with split input.
// No partial result accompanies it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// UnsupportedPolicyError is returned for a split policy outside Equal, Exact and Percent.
type UnsupportedPolicyError struct {
	Policy Policy
}

func (e *UnsupportedPolicyError) Error() string {
	return fmt.Sprintf("ledger: unsupported split policy %q", string(e.Policy))
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnsupportedPolicy reports whether err is, or wraps, an UnsupportedPolicyError.
func IsUnsupportedPolicy(err error) bool {
	var pe *UnsupportedPolicyError
	return errors.As(err, &pe)
}
