package model

import (
	"errors"
	"fmt"
)

// ConfigurationError marks failures a retry would only reproduce: unknown
// workflow state, unregistered action type, bad entity/op in a mutation.
type ConfigurationError struct {
	Message string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

type TransientError struct {
	Op  string
	Err error
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e TransientError) Unwrap() error {
	return e.Err
}

type CircuitOpenError struct {
	Circuit string
}

func (e CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit %s is open", e.Circuit)
}

// IsRetryable reports whether the saga may retry after err. Configuration,
// validation and not-found failures reproduce deterministically and are
// never retried.
func IsRetryable(err error) bool {
	var cfgErr ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return false
	}
	var nfErr NotFoundError
	return !errors.As(err, &nfErr)
}
