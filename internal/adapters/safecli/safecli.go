package safecli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports"
)

const (
	redacted = "<redacted>"

	// waitDelay bounds how long a killed CLI may hold its output pipes open
	waitDelay = 2 * time.Second
)

// SafeCLI implements the SafeClient port by shelling out to the safe binary
type SafeCLI struct {
	binary string
}

// NewSafeCLI creates a client for the given binary name or path
func NewSafeCLI(binary string) *SafeCLI {
	if binary == "" {
		binary = "safe"
	}
	return &SafeCLI{binary: binary}
}

// Binary returns the executable this client invokes
func (c *SafeCLI) Binary() string {
	return c.binary
}

// CreateAccount creates a key pair funded with test coins
func (c *SafeCLI) CreateAccount(ctx context.Context, req ports.AccountRequest) (*domain.Account, error) {
	args := AccountArgs(req)

	stdout, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	account, err := ParseAccount(stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse keys output: %w", err)
	}
	account.Preload = req.Preload
	account.Default = req.PersistAsDefault

	return account, nil
}

// Upload puts a file on the network and returns the JSON printed on stdout
func (c *SafeCLI) Upload(ctx context.Context, req ports.UploadRequest) ([]byte, error) {
	return c.run(ctx, UploadArgs(req))
}

// Version returns the output of safe --version
func (c *SafeCLI) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// AccountArgs builds the argument list for key creation
func AccountArgs(req ports.AccountRequest) []string {
	args := []string{"keys", "create", "--test-coins", "--preload", req.Preload, "--json"}
	if req.PersistAsDefault {
		args = append(args, "--for-cli")
	}
	return args
}

// UploadArgs builds the argument list for a file upload
func UploadArgs(req ports.UploadRequest) []string {
	args := []string{"files", "put", req.Path, "--json"}
	if req.PayWith != "" {
		args = append(args, "--pay-with", req.PayWith)
	}
	return args
}

// run executes the binary and returns stdout. Stderr only ends up in errors.
func (c *SafeCLI) run(ctx context.Context, args []string) ([]byte, error) {
	shown := redactArgs(args)
	slog.Debug("Running safe CLI", "binary", c.binary, "args", shown)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		cmdErr := &CommandError{
			Binary:   c.binary,
			Args:     shown,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cmdErr.Err = ctxErr
		}

		slog.Debug("Safe CLI failed",
			"args", shown,
			"exit_code", cmdErr.ExitCode,
			"duration", elapsed,
			"stderr", cmdErr.Stderr,
		)
		return nil, cmdErr
	}

	slog.Debug("Safe CLI completed",
		"args", shown,
		"duration", elapsed,
		"stdout_size", stdout.Len(),
	)

	return stdout.Bytes(), nil
}

// redactArgs hides the value following --pay-with
func redactArgs(args []string) []string {
	shown := make([]string, len(args))
	copy(shown, args)
	for i := 0; i < len(shown)-1; i++ {
		if shown[i] == "--pay-with" {
			shown[i+1] = redacted
		}
	}
	return shown
}

// IsAvailable checks if the safe binary is installed and available
func IsAvailable(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
