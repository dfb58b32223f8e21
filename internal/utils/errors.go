package utils

import (
	"errors"
	"fmt"
)

// ErrContractViolation marks invalid or missing input handed to a core function.
var ErrContractViolation = errors.New("contract violation")

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// ContractViolation reports a programming error in op. The result matches
// ErrContractViolation under errors.Is, and cause when one is given.
func ContractViolation(op, msg string, cause error) error {
	err := ErrContractViolation
	if cause != nil {
		err = errors.Join(ErrContractViolation, cause)
	}
	return NewAppError(op, msg, err)
}

// IsContractViolation reports whether err stems from invalid caller input.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}
