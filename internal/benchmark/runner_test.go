package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunnerHelperProcess stands in for a benchmark executable.
func TestRunnerHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[1:]
	}

	switch os.Getenv("HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "segfault")
		os.Exit(3)
	case "empty":
		return
	case "multi":
		fmt.Println("a:b:1:1:1:1.0")
		fmt.Println("a:b:1:1:1:1.0")
		return
	}

	// args: <variant> -t fn -c bytes -l loops -a align
	flags := map[string]string{}
	for i := 1; i+1 < len(args); i += 2 {
		flags[args[i]] = args[i+1]
	}
	fmt.Printf("%s:%s:%s:%s:%s:0.125\n", args[0], flags["-t"], flags["-c"], flags["-l"], flags["-a"])
}

func helperCommand(mode string) func(ctx context.Context, name string, arg ...string) *exec.Cmd {
	return func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		exe, _ := os.Executable()
		variant := strings.TrimPrefix(name, "try-")
		args := append([]string{"-test.run=TestRunnerHelperProcess", "--", variant}, arg...)
		cmd := exec.CommandContext(ctx, exe, args...)
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode}
		return cmd
	}
}

func TestExecRunner_Args(t *testing.T) {
	r := NewExecRunner("../build/try-")
	args := r.Args(Key{Variant: "glibc", Function: "memset", Bytes: 4096, Loops: 781250, Alignment: 16})
	assert.Equal(t, []string{"-t", "memset", "-c", "4096", "-l", "781250", "-a", "16"}, args)
}

func TestExecRunner_Run(t *testing.T) {
	origExec := execCommand
	defer func() { execCommand = origExec }()

	key := Key{Variant: "newlib", Function: "strcpy", Bytes: 256, Loops: 3125000, Alignment: 4}

	t.Run("Success", func(t *testing.T) {
		execCommand = helperCommand("ok")
		r := NewExecRunner("try-")

		line, err := r.Run(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, "newlib:strcpy:256:3125000:4:0.125", line)

		rec, err := ParseRecord(line)
		require.NoError(t, err)
		assert.Equal(t, key, rec.Key())
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		execCommand = helperCommand("fail")
		var stderr bytes.Buffer
		r := &ExecRunner{Prefix: "try-", Stderr: &stderr}

		_, err := r.Run(context.Background(), key)
		require.Error(t, err)

		var execErr *ExecError
		require.True(t, errors.As(err, &execErr))
		assert.Contains(t, execErr.Command, "try-newlib -t strcpy")
		assert.Contains(t, stderr.String(), "segfault")

		var exitErr *exec.ExitError
		assert.True(t, errors.As(err, &exitErr))
	})

	t.Run("NoOutput", func(t *testing.T) {
		execCommand = helperCommand("empty")
		_, err := NewExecRunner("try-").Run(context.Background(), key)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no output")
	})

	t.Run("MultipleLines", func(t *testing.T) {
		execCommand = helperCommand("multi")
		_, err := NewExecRunner("try-").Run(context.Background(), key)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one output line")
	})

	t.Run("MissingExecutable", func(t *testing.T) {
		execCommand = origExec
		_, err := NewExecRunner("/nonexistent/try-").Run(context.Background(), key)
		require.Error(t, err)

		var execErr *ExecError
		assert.True(t, errors.As(err, &execErr))
	})
}
