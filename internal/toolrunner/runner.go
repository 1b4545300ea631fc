package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"class360/internal/services"
)

// ToolError captures a non-zero exit from an external executable.
type ToolError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = "no stderr output"
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.ExitCode, detail)
}

func (e *ToolError) Unwrap() error { return services.ErrExternalTool }

// Runner executes external tools to completion and captures their output.
// No timeout is applied; a hung tool blocks its caller until the context is
// canceled.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Executor abstracts raw command execution so tests can substitute fakes.
type Executor interface {
	Execute(ctx context.Context, binary string, args []string) (stdout, stderr string, exitCode int, err error)
}

// Option configures the command runner.
type Option func(*CommandRunner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *CommandRunner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// CommandRunner is the production Runner backed by os/exec.
type CommandRunner struct {
	exec Executor
}

// New constructs a command runner.
func New(opts ...Option) *CommandRunner {
	runner := &CommandRunner{exec: processExecutor{}}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run invokes the binary with args and resolves on exit code zero, returning
// captured stdout. A non-zero exit produces a *ToolError wrapping the captured
// stderr and exit code.
func (r *CommandRunner) Run(ctx context.Context, binary string, args []string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "", errors.New("tool binary required")
	}

	stdout, stderr, code, err := r.exec.Execute(ctx, binary, args)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || code != 0 {
			return "", &ToolError{Binary: binary, ExitCode: code, Stderr: stderr}
		}
		return "", fmt.Errorf("run %s: %w", binary, err)
	}
	if code != 0 {
		return "", &ToolError{Binary: binary, ExitCode: code, Stderr: stderr}
	}
	return stdout, nil
}

type processExecutor struct{}

func (processExecutor) Execute(ctx context.Context, binary string, args []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	return stdout.String(), stderr.String(), code, err
}
