// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/cxxmod/cxxmod/internal/logging"
	"github.com/cxxmod/cxxmod/internal/tool"
)

// ErrEmptyCommand is returned in Result.Err for a Command without argv.
var ErrEmptyCommand = errors.New("empty command")

type (
	// Options configures a Runner.
	Options struct {
		// Logger receives start/finish records. Nil discards.
		Logger *slog.Logger
		// Sink receives the live transcript of visible invocations.
		Sink io.Writer
		// Env is appended to the host environment.
		Env []string
	}

	// Runner executes tool commands one at a time per call.
	Runner struct {
		logger *slog.Logger
		sink   io.Writer
		env    []string
	}

	// Result contains the outcome of one execution.
	Result struct {
		// ExitCode is the process exit status.
		ExitCode ExitCode
		// Stdout and Stderr hold the full captured streams.
		Stdout string
		Stderr string
		// Transcript is the combined output with section markers.
		Transcript string
		// Err is set when the process could not be started or waited on.
		// A non-zero exit status alone never sets Err.
		Err error
		// Duration is the wall time of the execution.
		Duration time.Duration
	}
)

// New creates a Runner.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{logger: logger, sink: opts.Sink, env: opts.Env}
}

// Success returns true if the command executed successfully.
func (r Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Err == nil
}

// Run executes cmd and blocks until it exits. When visible is true the
// transcript is streamed to the configured sink as it is produced.
func (r *Runner) Run(ctx context.Context, cmd tool.Command, visible bool) Result {
	if len(cmd.Argv) == 0 {
		return Result{ExitCode: 1, Err: ErrEmptyCommand}
	}

	var sink io.Writer
	if visible {
		sink = r.sink
	}
	transcript := NewTranscript(sink)

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), r.env...)
	c.Stdout = transcript.Writer(Stdout)
	c.Stderr = transcript.Writer(Stderr)

	r.logger.Debug("tool started", "command", cmd.String())
	start := time.Now()
	err := c.Run()

	result := Result{Duration: time.Since(start)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = ExitCode(exitErr.ExitCode())
		} else {
			result.ExitCode = 1
			result.Err = fmt.Errorf("failed to execute %s: %w", cmd.Argv[0], err)
		}
	}
	result.Stdout = transcript.Stdout()
	result.Stderr = transcript.Stderr()
	result.Transcript = transcript.String()

	r.logger.Debug("tool finished",
		"command", cmd.String(), "exit_code", int(result.ExitCode), "duration", result.Duration)
	return result
}
