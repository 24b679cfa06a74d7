// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"

	"github.com/cxxmod/cxxmod/internal/runner"
	"github.com/cxxmod/cxxmod/internal/tool"
)

type (
	// Invocation is one unit of queued work.
	Invocation struct {
		Command tool.Command
		// Visible streams the transcript live to the display sink.
		Visible bool
	}

	// Pending is the completion handle returned by Submit.
	Pending struct {
		// Seq is the submission sequence number, starting at 1.
		Seq        uint64
		Invocation Invocation

		done   chan struct{}
		result runner.Result
	}
)

func newPending(seq uint64, inv Invocation) *Pending {
	return &Pending{Seq: seq, Invocation: inv, done: make(chan struct{})}
}

// Done returns a channel closed once the invocation has resolved.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the invocation resolves or ctx is done. Abandoning the
// wait does not remove the invocation from the queue.
func (p *Pending) Wait(ctx context.Context) (runner.Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return runner.Result{}, ctx.Err()
	}
}

// Result returns the outcome. It must only be called after Done is closed.
func (p *Pending) Result() runner.Result { return p.result }

func (p *Pending) resolve(res runner.Result) {
	p.result = res
	close(p.done)
}
