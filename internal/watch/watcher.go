// SPDX-License-Identifier: MPL-2.0

// Package watch turns fsnotify notifications into ordered event batches.
//
// Notifications are collected until the tree has been quiet for the debounce
// period, then coalesced into create, rename and delete events and delivered
// to a single callback. Batches are delivered one at a time.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/cxxmod/cxxmod/internal/events"
	"github.com/cxxmod/cxxmod/internal/logging"
)

// defaultDebounce is long enough for an editor's rename-then-create pair to
// land in the same batch.
const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are always excluded, in addition to user patterns.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.cache/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/.cxxmod.lock",
}

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")
	// ErrInvalidPattern is returned for an ignore pattern doublestar rejects.
	ErrInvalidPattern = errors.New("watch: invalid ignore pattern")
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the workspace root. Empty means the working directory.
		BaseDir string

		// Ignore are extra doublestar patterns, relative to BaseDir, whose
		// matches never produce events.
		Ignore []string

		// Debounce is the quiet period before a batch is delivered. Zero or
		// negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnBatch receives each coalesced batch. Errors are logged.
		OnBatch func(ctx context.Context, batch []events.Event) error

		Logger *slog.Logger
	}

	// Watcher monitors a directory tree. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *slog.Logger
		debounce time.Duration
		baseDir  string
		started  atomic.Bool
	}

	// change is one raw notification kept in arrival order.
	change struct {
		op   fsnotify.Op
		path string
	}
)

// New creates a Watcher and registers every non-ignored directory under
// BaseDir.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	if err := ValidatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(DefaultIgnores(), cfg.Ignore...),
		logger:   logger,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// BaseDir returns the absolute workspace root.
func (w *Watcher) BaseDir() string { return w.baseDir }

// Run blocks until ctx is cancelled, delivering batches to OnBatch. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending []change
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after ctx is cancelled because it is scheduled with
	// time.AfterFunc. A batch still being handled postpones the next one.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		raw := pending
		pending = nil
		mu.Unlock()

		batch := coalesce(raw)
		if len(batch) == 0 || w.cfg.OnBatch == nil {
			return
		}
		if err := w.cfg.OnBatch(ctx, batch); err != nil {
			w.logger.Error("batch handler failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) && !evt.Has(fsnotify.Remove) {
				continue
			}
			if w.isIgnored(w.rel(evt.Name)) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending = append(pending, change{op: evt.Op, path: evt.Name})
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// coalesce converts raw notifications into events. A Rename notification
// names the old path; it is paired with a later Create in the batch, which
// names the new path, when both share a base name or a parent directory.
// Base name matches are preferred, then the oldest candidate. A Rename left
// unpaired means the file left the tree and becomes a delete.
func coalesce(raw []change) []events.Event {
	var (
		out       []events.Event
		departed  []string
		seen      = make(map[events.Event]struct{})
		emitEvent = func(ev events.Event) {
			if _, dup := seen[ev]; dup {
				return
			}
			seen[ev] = struct{}{}
			out = append(out, ev)
		}
	)

	for _, c := range raw {
		switch {
		case c.op.Has(fsnotify.Rename):
			departed = append(departed, c.path)
		case c.op.Has(fsnotify.Create):
			if i := renameSource(departed, c.path); i >= 0 {
				old := departed[i]
				departed = slices.Delete(departed, i, i+1)
				emitEvent(events.Rename(old, c.path))
				continue
			}
			emitEvent(events.Create(c.path))
		case c.op.Has(fsnotify.Remove):
			emitEvent(events.Delete(c.path))
		}
	}
	for _, old := range departed {
		emitEvent(events.Delete(old))
	}
	return out
}

// renameSource returns the index of the departed path that created most
// likely came from, or -1.
func renameSource(departed []string, created string) int {
	if i := slices.IndexFunc(departed, func(old string) bool {
		return filepath.Base(old) == filepath.Base(created)
	}); i >= 0 {
		return i
	}
	return slices.IndexFunc(departed, func(old string) bool {
		return filepath.Dir(old) == filepath.Dir(created)
	})
}

func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "error", err)
			return nil //nolint:nilerr // inaccessible directories are skipped
		}
		if !d.IsDir() {
			return nil
		}
		rel := w.rel(path)
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel := w.rel(path)
	if w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("add new directory", "path", path, "error", err)
	}
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return path
	}
	return rel
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

// ValidatePatterns checks that every pattern is a valid doublestar glob.
func ValidatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pat)
		}
	}
	return nil
}
