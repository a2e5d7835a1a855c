package safecli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoOutput indicates the CLI succeeded but printed nothing to parse
var ErrNoOutput = errors.New("no output from safe CLI")

// CommandError represents a failed invocation of the safe binary
type CommandError struct {
	Binary   string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *CommandError) Error() string {
	cmdline := e.Binary + " " + strings.Join(e.Args, " ")
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit code %d: %s", cmdline, e.ExitCode, firstLine(e.Stderr))
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsCommandError checks if err came from running the safe binary
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

// ExitCode returns the exit code carried by err, or -1
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
