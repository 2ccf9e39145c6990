package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes one measurement and returns the raw output line.
type Runner interface {
	Run(ctx context.Context, key Key) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, key Key) (string, error)

func (f RunnerFunc) Run(ctx context.Context, key Key) (string, error) { return f(ctx, key) }

// execCommand allows mocking in tests.
var execCommand = exec.CommandContext

// ExecError reports a failed executable invocation.
type ExecError struct {
	Command string
	Output  string
	Err     error
}

func (e *ExecError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("running %s: %v\nOutput:\n%s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("running %s: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExecRunner invokes one executable per variant, named Prefix+variant.
type ExecRunner struct {
	Prefix string
	Stderr io.Writer
}

// NewExecRunner returns a runner for executables named prefix+variant.
func NewExecRunner(prefix string) *ExecRunner {
	return &ExecRunner{Prefix: prefix, Stderr: os.Stderr}
}

// Args returns the command line for a measurement.
func (r *ExecRunner) Args(key Key) []string {
	return []string{
		"-t", key.Function,
		"-c", strconv.Itoa(key.Bytes),
		"-l", strconv.Itoa(key.Loops),
		"-a", strconv.Itoa(key.Alignment),
	}
}

// Run blocks until the executable exits. There is no timeout; only ctx
// cancellation stops a hung process.
func (r *ExecRunner) Run(ctx context.Context, key Key) (string, error) {
	name := r.Prefix + key.Variant
	args := r.Args(key)
	cmd := execCommand(ctx, name, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	cmdline := strings.Join(append([]string{name}, args...), " ")
	if err := cmd.Run(); err != nil {
		return "", &ExecError{Command: cmdline, Output: out.String(), Err: err}
	}

	line := strings.TrimSpace(out.String())
	if line == "" {
		return "", &ExecError{Command: cmdline, Err: errors.New("no output")}
	}
	if strings.Contains(line, "\n") {
		return "", &ExecError{Command: cmdline, Output: line, Err: errors.New("expected exactly one output line")}
	}
	return line, nil
}
