package api_v1

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError rejects malformed input before any state mutation.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError reports a reference to an unknown entity id.
type NotFoundError struct {
	Kind string
	Id   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// ExecutionError reports a step or action failure at runtime. It is
// captured into the relevant result record, never thrown past the
// step/action boundary.
type ExecutionError struct {
	Action string
	Cause  error
}

func (e ExecutionError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.Action, e.Cause)
}

func (e ExecutionError) Unwrap() error {
	return e.Cause
}

// TimeoutError distinguishes deadline exceeded from logical failure.
type TimeoutError struct {
	Action  string
	Timeout time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("action %s timed out after %s", e.Action, e.Timeout)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func IsTimeout(err error) bool {
	var te TimeoutError
	return errors.As(err, &te)
}
