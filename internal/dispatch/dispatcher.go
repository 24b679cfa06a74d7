// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cxxmod/cxxmod/internal/logging"
	"github.com/cxxmod/cxxmod/internal/runner"
	"github.com/cxxmod/cxxmod/internal/tool"
)

var (
	// ErrClosed resolves invocations submitted after Close.
	ErrClosed = errors.New("dispatcher is closed")
	// ErrAlreadyRunning is returned when Run is called on a dispatcher whose
	// worker is already active.
	ErrAlreadyRunning = errors.New("dispatcher worker already running")
)

type (
	// Executor runs one command to completion.
	Executor interface {
		Run(ctx context.Context, cmd tool.Command, visible bool) runner.Result
	}

	// Observer is notified on the worker goroutine around each execution.
	// Finished is called before the invocation's waiters are released.
	Observer interface {
		Started(p *Pending)
		Finished(p *Pending, res runner.Result)
	}

	// Options configures a Dispatcher.
	Options struct {
		Logger   *slog.Logger
		Observer Observer
	}

	// Stats is a snapshot of the dispatcher state.
	Stats struct {
		Queued    int
		Busy      bool
		Submitted uint64
		Completed uint64
		Failed    uint64
	}

	// Dispatcher is a serialised FIFO of tool invocations.
	Dispatcher struct {
		exec     Executor
		observer Observer
		logger   *slog.Logger

		mu      sync.Mutex
		cond    *sync.Cond
		queue   []*Pending
		busy    bool
		closed  bool
		running bool
		stats   Stats
	}
)

// New creates a Dispatcher executing through exec.
func New(exec Executor, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	d := &Dispatcher{exec: exec, observer: opts.Observer, logger: logger}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Submit enqueues inv and returns its completion handle. It never blocks on
// execution. After Close the handle is already resolved with ErrClosed.
func (d *Dispatcher) Submit(inv Invocation) *Pending {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.Submitted++
	p := newPending(d.stats.Submitted, inv)
	if d.closed {
		p.resolve(runner.Result{ExitCode: 1, Err: ErrClosed})
		return p
	}
	d.queue = append(d.queue, p)
	d.cond.Signal()
	d.logger.Debug("invocation queued", "seq", p.Seq, "command", inv.Command.String(), "queued", len(d.queue))
	return p
}

// Close stops intake. Invocations already queued still run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cond.Broadcast()
}

// Stats returns a snapshot of the queue state.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Queued = len(d.queue)
	s.Busy = d.busy
	return s
}

// Run is the worker loop. It returns nil once the dispatcher is closed and
// its queue drained. When ctx is cancelled the executing invocation is left
// to finish, and the invocations still queued resolve with ctx's error.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		d.mu.Lock()
		d.cond.Broadcast()
		d.mu.Unlock()
	})
	defer stop()

	// In-flight invocations are never cancelled.
	execCtx := context.WithoutCancel(ctx)

	for {
		p, err := d.next(ctx)
		if p == nil {
			return err
		}
		d.execute(execCtx, p)
	}
}

// next pops the head of the queue and marks the dispatcher busy in the same
// critical section. It returns nil when the worker should stop.
func (d *Dispatcher) next(ctx context.Context) (*Pending, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.queue) == 0 && !d.closed && ctx.Err() == nil {
		d.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		d.abandonLocked(err)
		d.running = false
		return nil, err
	}
	if len(d.queue) == 0 {
		d.running = false
		return nil, nil
	}
	p := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	d.busy = true
	return p, nil
}

func (d *Dispatcher) execute(ctx context.Context, p *Pending) {
	if d.observer != nil {
		d.observer.Started(p)
	}
	d.logger.Info("running tool", "seq", p.Seq, "command", p.Invocation.Command.String())

	res := d.exec.Run(ctx, p.Invocation.Command, p.Invocation.Visible)

	if res.Success() {
		d.logger.Debug("tool succeeded", "seq", p.Seq, "duration", res.Duration)
	} else {
		d.logger.Warn("tool failed", "seq", p.Seq, "exit_code", int(res.ExitCode), "error", res.Err)
	}
	if d.observer != nil {
		d.observer.Finished(p, res)
	}

	d.mu.Lock()
	p.resolve(res)
	d.busy = false
	d.stats.Completed++
	if !res.Success() {
		d.stats.Failed++
	}
	d.mu.Unlock()
}

func (d *Dispatcher) abandonLocked(err error) {
	for _, p := range d.queue {
		p.resolve(runner.Result{ExitCode: 1, Err: err})
	}
	if n := len(d.queue); n > 0 {
		d.logger.Warn("abandoned queued invocations", "count", n, "error", err)
	}
	d.queue = nil
}
