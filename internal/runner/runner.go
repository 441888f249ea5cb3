// Package runner executes the imi binary with timeouts and output capture,
// and normalises its mixed human/JSON output into a single Outcome.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel exit codes surfaced to callers. 124 and 127 never come from the
// child process itself; they mark conditions detected by the runner.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitTimeout  = 124
	ExitNotFound = 127
)

// Runner invokes the imi binary. Each call is fully independent: one child
// process per invocation, no shared state, no retries.
type Runner struct {
	Binary    string        // executable name or path, resolved via PATH
	Timeout   time.Duration // wall-clock limit per invocation
	MaxOutput int           // byte cap per captured stream
}

// Invocation is one request to run the binary: the resolved executable,
// the full argv (with the --json flag already prepended), and the timeout.
type Invocation struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Invoke runs the binary with the given arguments. A --json flag is
// prepended so imi emits its machine-readable result line.
//
// Invoke never returns an error: resolution failure, timeout, and spawn
// failure are all reported through the RawExecution's exit code and
// diagnostic, using the sentinel codes above.
func (r *Runner) Invoke(ctx context.Context, args []string) *RawExecution {
	runID := uuid.New().String()

	path, err := exec.LookPath(r.Binary)
	if err != nil {
		return &RawExecution{
			RunID:    runID,
			ExitCode: ExitNotFound,
			Diag:     fmt.Sprintf("imi binary not found: %s. Ensure imi is installed and in PATH.", r.Binary),
		}
	}

	inv := Invocation{
		Path:    path,
		Args:    append([]string{"--json"}, args...),
		Timeout: r.Timeout,
	}
	return run(ctx, runID, inv, r.MaxOutput)
}

// Run is the common path: invoke then extract.
func (r *Runner) Run(ctx context.Context, args []string) Outcome {
	return Extract(r.Invoke(ctx, args))
}

func run(ctx context.Context, runID string, inv Invocation, maxOutput int) *RawExecution {
	ctx, cancel := context.WithTimeout(ctx, inv.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: maxOutput}

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		// A timed-out run is a hard failure; partial output is dropped.
		return &RawExecution{
			RunID:    runID,
			ExitCode: ExitTimeout,
			Diag:     fmt.Sprintf("command timed out after %s", inv.Timeout),
		}
	}

	exitCode := ExitOK
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Spawn failed: permission denied, exec format error, etc.
			return &RawExecution{
				RunID:    runID,
				ExitCode: ExitFailure,
				Diag:     fmt.Sprintf("executing %s: %v", inv.Path, runErr),
			}
		}
	}

	return &RawExecution{
		RunID:    runID,
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
	}
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
