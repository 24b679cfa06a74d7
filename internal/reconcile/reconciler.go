// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cxxmod/cxxmod/internal/lock"
	"github.com/cxxmod/cxxmod/internal/logging"
	"github.com/cxxmod/cxxmod/internal/manifest"
)

type (
	// Options configures a Reconciler.
	Options struct {
		// Store reads and writes manifests. Required.
		Store *manifest.Store
		// Logger receives progress and warnings. Nil discards.
		Logger *slog.Logger
		// Locks, when non-nil, serialises Apply calls per directory.
		Locks *lock.Keyed
		// SkipUnchangedWrites suppresses the save of a same-directory rename
		// that replaced nothing.
		SkipUnchangedWrites bool
	}

	// Reconciler applies MoveEvents to manifests.
	Reconciler struct {
		store     *manifest.Store
		logger    *slog.Logger
		locks     *lock.Keyed
		skipNoops bool
	}
)

// New creates a Reconciler.
func New(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reconciler{
		store:     opts.Store,
		logger:    logger,
		locks:     opts.Locks,
		skipNoops: opts.SkipUnchangedWrites,
	}
}

// Apply updates the manifests affected by ev. A missing source manifest is
// not an error. Malformed manifests are returned as *manifest.ParseError and
// leave both files untouched.
func (r *Reconciler) Apply(ctx context.Context, ev MoveEvent) (Report, error) {
	report := Report{Event: ev, Kind: ev.Kind()}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	unlock := r.locks.Lock(ev.OldDir(), ev.NewDir())
	defer unlock()

	old, err := r.store.Load(ev.OldDir())
	if errors.Is(err, manifest.ErrAbsent) {
		r.logger.Debug("manifest absent, directory untracked",
			"manifest", r.store.Path(ev.OldDir()), "event", ev.String())
		report.Outcome = OutcomeUntracked
		return report, nil
	}
	if err != nil {
		return report, err
	}

	if report.Kind == SameDirectory {
		return r.rename(old, report)
	}
	return r.move(old, report)
}

func (r *Reconciler) rename(m *manifest.Manifest, report Report) (Report, error) {
	ev := report.Event
	report.Outcome = OutcomeRenamed

	inspected := false
	for _, cat := range m.All() {
		list, ok := cat.Value.(*manifest.List)
		if !ok {
			continue
		}
		inspected = true
		report.Replaced += list.Replace(ev.OldName(), ev.NewName())
	}

	if !inspected || (r.skipNoops && report.Replaced == 0) {
		r.logger.Debug("manifest unchanged, not saved",
			"manifest", r.store.Path(m.Dir()), "event", ev.String())
		return report, nil
	}

	if err := r.store.Save(m); err != nil {
		return report, err
	}
	report.Written = append(report.Written, r.store.Path(m.Dir()))
	r.logger.Info("manifest entries renamed",
		"manifest", r.store.Path(m.Dir()), "from", ev.OldName(), "to", ev.NewName(), "count", report.Replaced)
	return report, nil
}

func (r *Reconciler) move(old *manifest.Manifest, report Report) (Report, error) {
	ev := report.Event

	type movedBlock struct {
		category string
		entries  *manifest.List
	}
	// Entries leave the source document, so no alias may keep pointing at
	// them.
	if err := old.ExpandAliases(); err != nil {
		return report, &manifest.ParseError{Path: r.store.Path(old.Dir()), Err: err}
	}

	var moved []movedBlock
	for _, cat := range old.All() {
		list, ok := cat.Value.(*manifest.List)
		if !ok {
			continue
		}
		matched, remaining := list.Partition(ev.OldName())
		if matched.Len() == 0 {
			continue
		}
		old.Set(cat.Name, remaining)
		matched.Replace(ev.OldName(), ev.NewName())
		moved = append(moved, movedBlock{category: cat.Name, entries: matched})
	}

	if len(moved) == 0 {
		r.logger.Debug("file not listed in manifest, nothing to migrate",
			"manifest", r.store.Path(old.Dir()), "file", ev.OldName())
		report.Outcome = OutcomeNoMatch
		return report, nil
	}
	report.Outcome = OutcomeMoved
	report.Moved = make(map[string]int, len(moved))

	// The destination is decoded before the source is rewritten so that a
	// malformed destination leaves both manifests as they were.
	dest, err := r.store.Load(ev.NewDir())
	switch {
	case errors.Is(err, manifest.ErrAbsent):
		r.logger.Info("destination manifest absent, creating it",
			"manifest", r.store.Path(ev.NewDir()))
		dest = manifest.New(ev.NewDir())
	case err != nil:
		return report, err
	default:
		if err := dest.ExpandAliases(); err != nil {
			return report, &manifest.ParseError{Path: r.store.Path(dest.Dir()), Err: err}
		}
	}

	if err := r.store.Save(old); err != nil {
		return report, err
	}
	report.Written = append(report.Written, r.store.Path(old.Dir()))

	for _, block := range moved {
		existing, ok := dest.Lookup(block.category)
		if !ok {
			dest.Set(block.category, block.entries)
			report.Moved[block.category] = block.entries.Len()
			continue
		}
		list, isList := existing.(*manifest.List)
		if !isList {
			w := ShapeWarning{Manifest: r.store.Path(dest.Dir()), Category: block.category}
			r.logger.Warn(w.String())
			report.Warnings = append(report.Warnings, w)
			continue
		}
		list.Concat(block.entries)
		report.Moved[block.category] = block.entries.Len()
	}

	if err := r.store.Save(dest); err != nil {
		return report, fmt.Errorf("source manifest already updated: %w", err)
	}
	report.Written = append(report.Written, r.store.Path(dest.Dir()))
	r.logger.Info("manifest entries moved",
		"from", r.store.Path(old.Dir()), "to", r.store.Path(dest.Dir()),
		"file", ev.NewName(), "count", report.MovedTotal())
	return report, nil
}
