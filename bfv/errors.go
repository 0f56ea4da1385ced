package bfv

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the sentinel wrapped by every [ConfigurationError].
	ErrConfiguration = errors.New("bfv: invalid configuration")

	// ErrUsage is the sentinel wrapped by every [UsageError].
	ErrUsage = errors.New("bfv: invalid usage")
)

// ConfigurationError reports invalid parameters. It is returned before any
// key material exists and is not retryable.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

// Unwrap returns [ErrConfiguration].
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// UsageError reports a caller error: mismatched parameters between operands,
// or an operand with a number of components the operation does not accept.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrUsage, e.Op, e.Reason)
}

// Unwrap returns [ErrUsage].
func (e *UsageError) Unwrap() error {
	return ErrUsage
}

func newConfigurationError(field, format string, a ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

func newUsageError(op, format string, a ...interface{}) error {
	return &UsageError{Op: op, Reason: fmt.Sprintf(format, a...)}
}
