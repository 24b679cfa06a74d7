// SPDX-License-Identifier: MPL-2.0

package events

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/cxxmod/cxxmod/internal/dispatch"
	"github.com/cxxmod/cxxmod/internal/logging"
	"github.com/cxxmod/cxxmod/internal/manifest"
	"github.com/cxxmod/cxxmod/internal/modsrc"
	"github.com/cxxmod/cxxmod/internal/prompt"
	"github.com/cxxmod/cxxmod/internal/reconcile"
	"github.com/cxxmod/cxxmod/internal/tool"
)

type (
	// Submitter queues tool invocations.
	Submitter interface {
		Submit(inv dispatch.Invocation) *dispatch.Pending
	}

	// Options configures a Handler.
	Options struct {
		// Fs is used to inspect created paths. Nil uses the OS file system.
		Fs         afero.Fs
		Store      *manifest.Store
		Reconciler *reconcile.Reconciler
		Tool       *tool.Builder
		Submitter  Submitter
		Prompter   prompt.Prompter
		Logger     *slog.Logger

		// AddDirs decides what happens to created directories. Empty means
		// AddDirsAsk.
		AddDirs AddDirsPolicy
		// ForwardRenames submits a rename command for moved source files
		// after their manifests are reconciled.
		ForwardRenames bool
		// Visible streams tool output live instead of only on failure.
		Visible bool
	}

	// Handler processes event batches.
	Handler struct {
		fs         afero.Fs
		store      *manifest.Store
		reconciler *reconcile.Reconciler
		tool       *tool.Builder
		submitter  Submitter
		prompter   prompt.Prompter
		logger     *slog.Logger
		addDirs    AddDirsPolicy
		forward    bool
		visible    bool
	}
)

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	addDirs := opts.AddDirs
	if addDirs == "" {
		addDirs = AddDirsAsk
	}
	p := opts.Prompter
	if p == nil {
		p = prompt.Static{}
	}
	return &Handler{
		fs:         fsys,
		store:      opts.Store,
		reconciler: opts.Reconciler,
		tool:       opts.Tool,
		submitter:  opts.Submitter,
		prompter:   p,
		logger:     logger,
		addDirs:    addDirs,
		forward:    opts.ForwardRenames,
		visible:    opts.Visible,
	}
}

// HandleBatch processes evs in order. Submitted invocations are not awaited.
func (h *Handler) HandleBatch(ctx context.Context, evs []Event) BatchResult {
	batch := BatchResult{ID: uuid.NewString(), Results: make([]Result, 0, len(evs))}
	logger := h.logger.With("batch", batch.ID)
	logger.Debug("handling batch", "events", len(evs))

	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			batch.Results = append(batch.Results, Result{Event: ev, Err: err})
			continue
		}
		res := h.Handle(ctx, ev)
		switch {
		case res.Err != nil:
			logger.Error("event failed", "event", ev.String(), "error", res.Err)
		case res.Skipped != "":
			logger.Debug("event skipped", "event", ev.String(), "reason", res.Skipped)
		default:
			logger.Info("event handled", "event", ev.String(), "submitted", len(res.Submitted))
		}
		batch.Results = append(batch.Results, res)
	}
	return batch
}

// Handle processes a single event.
func (h *Handler) Handle(ctx context.Context, ev Event) Result {
	if h.store.IsManifest(ev.Path) || (ev.Op == OpRename && h.store.IsManifest(ev.OldPath)) {
		return Result{Event: ev, Skipped: "manifest file"}
	}
	switch ev.Op {
	case OpRename:
		return h.rename(ctx, ev)
	case OpCreate:
		return h.create(ctx, ev)
	case OpDelete:
		return h.delete(ev)
	default:
		return Result{Event: ev, Err: fmt.Errorf("%w: %d", ErrInvalidOp, int(ev.Op))}
	}
}

func (h *Handler) rename(ctx context.Context, ev Event) Result {
	res := Result{Event: ev}
	report, err := h.reconciler.Apply(ctx, reconcile.NewMoveEvent(ev.OldPath, ev.Path))
	res.Report = &report
	if err != nil {
		res.Err = err
		return res
	}

	if h.forward && modsrc.Classify(ev.Path, false).IsSource() {
		res.Submitted = append(res.Submitted, h.submit(h.tool.Rename(ev.OldPath, ev.Path)))
	}
	return res
}

func (h *Handler) create(ctx context.Context, ev Event) Result {
	res := Result{Event: ev}
	info, err := h.fs.Stat(ev.Path)
	if errors.Is(err, fs.ErrNotExist) {
		res.Skipped = "path no longer exists"
		return res
	}
	if err != nil {
		res.Err = err
		return res
	}

	kind := modsrc.Classify(ev.Path, info.IsDir())
	switch {
	case kind == modsrc.KindDirectory:
		return h.createDir(ctx, res)
	case kind.IsSource():
		return h.createSource(ctx, res, kind, info.Size() == 0)
	default:
		res.Skipped = "not a module source"
		return res
	}
}

func (h *Handler) createDir(ctx context.Context, res Result) Result {
	switch h.addDirs {
	case AddDirsNever:
		res.Skipped = "directory registration disabled"
		return res
	case AddDirsAsk:
		ok, err := h.prompter.Confirm(ctx, fmt.Sprintf("Add directory %s to the build?", res.Event.Path))
		if errors.Is(err, prompt.ErrCancelled) || (err == nil && !ok) {
			res.Skipped = "declined"
			return res
		}
		if err != nil {
			res.Err = err
			return res
		}
	}
	res.Submitted = append(res.Submitted, h.submit(h.tool.AddDir(res.Event.Path)))
	return res
}

func (h *Handler) createSource(ctx context.Context, res Result, kind modsrc.Kind, empty bool) Result {
	var suggestion string
	if !empty {
		decl, found, err := modsrc.FindFile(h.fs, res.Event.Path)
		if err != nil {
			h.logger.Debug("module declaration scan failed", "path", res.Event.Path, "error", err)
		}
		if found {
			suggestion = decl.Name()
		}
	}

	module, err := h.prompter.ModuleName(ctx, res.Event.Path, suggestion)
	if errors.Is(err, prompt.ErrCancelled) {
		res.Skipped = "no module name given"
		return res
	}
	if err != nil {
		res.Err = err
		return res
	}

	var cmd tool.Command
	if kind == modsrc.KindInterface {
		cmd, err = h.tool.AddInterface(res.Event.Path, module, empty)
	} else {
		cmd, err = h.tool.AddImpl(res.Event.Path, module, empty)
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Submitted = append(res.Submitted, h.submit(cmd))
	return res
}

func (h *Handler) delete(ev Event) Result {
	return Result{Event: ev, Submitted: []*dispatch.Pending{h.submit(h.tool.Delete(ev.Path))}}
}

func (h *Handler) submit(cmd tool.Command) *dispatch.Pending {
	return h.submitter.Submit(dispatch.Invocation{Command: cmd, Visible: h.visible})
}
