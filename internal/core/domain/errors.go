package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies which step of a run failed
type ErrorKind int

const (
	AccountCreationFailed ErrorKind = iota + 1
	DirectoryCreationFailed
	FileGenerationFailed
	UploadFailed
)

func (k ErrorKind) String() string {
	switch k {
	case AccountCreationFailed:
		return "account creation failed"
	case DirectoryCreationFailed:
		return "directory creation failed"
	case FileGenerationFailed:
		return "file generation failed"
	case UploadFailed:
		return "upload failed"
	default:
		return "unknown failure"
	}
}

// ErrRunFailed is returned when a run finished with at least one failure
var ErrRunFailed = errors.New("run finished with failures")

// NoIndex marks a step error that is not tied to an iteration
const NoIndex = -1

// StepError wraps a failure with the step it happened in
type StepError struct {
	Kind  ErrorKind
	Index int
	Err   error
}

// NewStepError creates a StepError
func NewStepError(kind ErrorKind, index int, err error) *StepError {
	return &StepError{Kind: kind, Index: index, Err: err}
}

// Error implements the error interface
func (e *StepError) Error() string {
	if e.Index == NoIndex {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (item %d): %v", e.Kind, e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first StepError in err's chain, or 0
func KindOf(err error) ErrorKind {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return 0
}

// IsAccountCreationFailed checks if the error came from account setup
func IsAccountCreationFailed(err error) bool {
	return KindOf(err) == AccountCreationFailed
}

// IsDirectoryCreationFailed checks if the error came from directory preparation
func IsDirectoryCreationFailed(err error) bool {
	return KindOf(err) == DirectoryCreationFailed
}

// IsFileGenerationFailed checks if the error came from writing a random file
func IsFileGenerationFailed(err error) bool {
	return KindOf(err) == FileGenerationFailed
}

// IsUploadFailed checks if the error came from the upload step
func IsUploadFailed(err error) bool {
	return KindOf(err) == UploadFailed
}
