// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/cxxmod/cxxmod/internal/dispatch"
	"github.com/cxxmod/cxxmod/internal/events"
	"github.com/cxxmod/cxxmod/internal/issue"
	"github.com/cxxmod/cxxmod/internal/prompt"
	"github.com/cxxmod/cxxmod/internal/reconcile"
	"github.com/cxxmod/cxxmod/internal/runner"
)

// display prints dispatcher progress. A failed invocation that was not
// streamed live has its transcript printed on stderr afterwards.
type display struct {
	mu      sync.Mutex
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
}

func newDisplay(stdout, stderr io.Writer, verbose bool) *display {
	return &display{stdout: stdout, stderr: stderr, verbose: verbose}
}

// Started implements dispatch.Observer.
func (d *display) Started(p *dispatch.Pending) {
	if !d.verbose && !p.Invocation.Visible {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.stdout, "%s %s\n", VerboseStyle.Render(arrowIcon), CmdStyle.Render(p.Invocation.Command.String()))
}

// Finished implements dispatch.Observer.
func (d *display) Finished(p *dispatch.Pending, res runner.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res.Success() {
		if d.verbose {
			fmt.Fprintf(d.stdout, "%s %s %s\n", SuccessStyle.Render(successIcon),
				p.Invocation.Command.String(), VerboseStyle.Render("("+res.Duration.String()+")"))
		}
		return
	}

	header := fmt.Sprintf("%s %s failed (exit status %s)", errorIcon, p.Invocation.Command.String(), res.ExitCode)
	fmt.Fprintln(d.stderr, transcriptHeaderStyle.Render(header))
	if res.Err != nil {
		fmt.Fprintf(d.stderr, "%s\n", res.Err)
		if errors.Is(res.Err, exec.ErrNotFound) {
			renderIssue(d.stderr, issue.ToolNotFoundId)
		}
	}
	if !p.Invocation.Visible && res.Transcript != "" {
		fmt.Fprint(d.stderr, res.Transcript)
		if !strings.HasSuffix(res.Transcript, "\n") {
			fmt.Fprintln(d.stderr)
		}
	}
}

// batch prints one line per handled event plus manifest warnings.
func (d *display) batch(res events.BatchResult) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range res.Results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(d.stderr, "%s %s: %s\n", ErrorStyle.Render(errorIcon), r.Event, formatError(r.Err, d.verbose))
		case r.Skipped != "":
			fmt.Fprintf(d.stdout, "%s %s %s\n", SubtitleStyle.Render("-"), r.Event, SubtitleStyle.Render("("+r.Skipped+")"))
		case r.Report != nil:
			fmt.Fprintf(d.stdout, "%s %s %s\n", SuccessStyle.Render(successIcon), r.Event, describeReport(*r.Report))
		default:
			fmt.Fprintf(d.stdout, "%s %s %s\n", VerboseStyle.Render(arrowIcon), r.Event,
				SubtitleStyle.Render(fmt.Sprintf("(%d queued)", len(r.Submitted))))
		}
	}
	for _, w := range res.Warnings() {
		fmt.Fprintf(d.stderr, "%s %s\n", WarningStyle.Render(warningIcon), w)
	}
}

func describeReport(r reconcile.Report) string {
	switch r.Outcome {
	case reconcile.OutcomeRenamed:
		return fmt.Sprintf("renamed %d entr%s", r.Replaced, plural(r.Replaced, "y", "ies"))
	case reconcile.OutcomeMoved:
		n := r.MovedTotal()
		return fmt.Sprintf("moved %d entr%s", n, plural(n, "y", "ies"))
	default:
		return SubtitleStyle.Render("(" + r.Outcome.String() + ")")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatError formats an error for user display. ActionableErrors use their
// Format method; verbose mode shows the full error chain.
func formatError(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError prints err and, when it links a catalog entry, the entry's
// guidance.
func renderError(w io.Writer, err error, verbose bool) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), formatError(err, verbose))
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.IssueID != 0 {
		renderIssue(w, ae.IssueID)
	}
}

func renderIssue(w io.Writer, id issue.Id) {
	iss := issue.Get(id)
	if iss == nil {
		return
	}
	style := "notty"
	if prompt.IsTerminal(os.Stderr) {
		style = "dark"
	}
	rendered, err := iss.Render(style)
	if err != nil {
		fmt.Fprintln(w, iss.Title())
		return
	}
	fmt.Fprint(w, rendered)
}
