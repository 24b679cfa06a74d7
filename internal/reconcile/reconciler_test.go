// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"context"
	"errors"
	"os"
	"slices"
	"strconv"
	"testing"

	"github.com/cxxmod/cxxmod/internal/lock"
	"github.com/cxxmod/cxxmod/internal/manifest"

	"github.com/spf13/afero"
)

// countingFs records reads per file so tests can prove a manifest was never
// consulted.
type countingFs struct {
	afero.Fs
	opened map[string]int
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opened[name]++
	return c.Fs.Open(name)
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	c.opened[name]++
	return c.Fs.OpenFile(name, flag, perm)
}

func newFixture(t *testing.T, files map[string]string) (*countingFs, *Reconciler) {
	t.Helper()
	fsys := &countingFs{Fs: afero.NewMemMapFs(), opened: map[string]int{}}
	for path, content := range files {
		if err := afero.WriteFile(fsys.Fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	r := New(Options{Store: manifest.NewStore(fsys, "")})
	return fsys, r
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func loadList(t *testing.T, fsys afero.Fs, dir, category string) []string {
	t.Helper()
	m, err := manifest.NewStore(fsys, "").Load(dir)
	if err != nil {
		t.Fatalf("Load(%s) error: %v", dir, err)
	}
	v, ok := m.Lookup(category)
	if !ok {
		return nil
	}
	l, ok := v.(*manifest.List)
	if !ok {
		t.Fatalf("%s/%s is %T, want list", dir, category, v)
	}
	return l.Names()
}

func countEverywhere(t *testing.T, fsys afero.Fs, dir, name string) int {
	t.Helper()
	m, err := manifest.NewStore(fsys, "").Load(dir)
	if errors.Is(err, manifest.ErrAbsent) {
		return 0
	}
	if err != nil {
		t.Fatalf("Load(%s) error: %v", dir, err)
	}
	total := 0
	for _, cat := range m.All() {
		if l, ok := cat.Value.(*manifest.List); ok {
			total += l.Count(name)
		}
	}
	return total
}

func TestMoveEventClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		old, new string
		want     MoveKind
	}{
		{"/ws/src/a.cpp", "/ws/src/b.cpp", SameDirectory},
		{"/ws/src/a.cpp", "/ws/lib/a.cpp", CrossDirectory},
		{"/ws/src/./a.cpp", "/ws/src/b.cpp", SameDirectory},
	}
	for _, tt := range tests {
		ev := NewMoveEvent(tt.old, tt.new)
		if got := ev.Kind(); got != tt.want {
			t.Errorf("Kind(%s) = %v, want %v", ev, got, tt.want)
		}
	}
}

func TestRenameNonListPreserved(t *testing.T) {
	t.Parallel()

	fsys, r := newFixture(t, map[string]string{
		"/ws/src/resource.yml": "resources: [a, b]\nversion: \"1.0\"\n",
	})

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/src/a", "/ws/src/c"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if report.Outcome != OutcomeRenamed || report.Replaced != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := loadList(t, fsys, "/ws/src", "resources"); !slices.Equal(got, []string{"c", "b"}) {
		t.Errorf("resources = %v, want [c b]", got)
	}
	m, _ := manifest.NewStore(fsys, "").Load("/ws/src")
	v, _ := m.Lookup("version")
	if s, ok := v.(*manifest.Scalar); !ok || s.String() != "1.0" {
		t.Errorf("version = %#v, want 1.0", v)
	}
}

func TestRenameReplacesEveryOccurrenceAcrossCategories(t *testing.T) {
	t.Parallel()

	fsys, r := newFixture(t, map[string]string{
		"/ws/src/resource.yml": "interfaces: [a.cppm, x.cppm, a.cppm]\nimpls: [a.cppm]\n",
	})

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/src/a.cppm", "/ws/src/b.cppm"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if report.Replaced != 3 {
		t.Errorf("Replaced = %d, want 3", report.Replaced)
	}
	if got := loadList(t, fsys, "/ws/src", "interfaces"); !slices.Equal(got, []string{"b.cppm", "x.cppm", "b.cppm"}) {
		t.Errorf("interfaces = %v", got)
	}
	if got := loadList(t, fsys, "/ws/src", "impls"); !slices.Equal(got, []string{"b.cppm"}) {
		t.Errorf("impls = %v", got)
	}
}

func TestRenameMissStillSaves(t *testing.T) {
	t.Parallel()

	fsys, r := newFixture(t, map[string]string{
		"/ws/src/resource.yml": "# tracked sources\nsources: [x.cpp]   # main\n",
	})

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/src/a.cpp", "/ws/src/b.cpp"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if report.Replaced != 0 || len(report.Written) != 1 {
		t.Fatalf("report = %+v, want one write and no replacements", report)
	}
	if got := loadList(t, fsys, "/ws/src", "sources"); !slices.Equal(got, []string{"x.cpp"}) {
		t.Errorf("sources = %v", got)
	}
}

func TestRenameMissSkippedWhenConfigured(t *testing.T) {
	t.Parallel()

	const original = "sources:   [x.cpp]\n"
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/ws/src/resource.yml", []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(Options{Store: manifest.NewStore(fsys, ""), SkipUnchangedWrites: true})

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/src/a.cpp", "/ws/src/b.cpp"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(report.Written) != 0 {
		t.Errorf("Written = %v, want none", report.Written)
	}
	if got := readFile(t, fsys, "/ws/src/resource.yml"); got != original {
		t.Errorf("manifest rewritten:\n%s", got)
	}
}

func TestRenameUntracked(t *testing.T) {
	t.Parallel()

	_, r := newFixture(t, nil)
	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/src/a.cpp", "/ws/src/b.cpp"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if report.Outcome != OutcomeUntracked {
		t.Errorf("Outcome = %v, want untracked", report.Outcome)
	}
}

func TestMalformedManifestIsHardError(t *testing.T) {
	t.Parallel()

	_, r := newFixture(t, map[string]string{
		"/ws/src/resource.yml": "sources: [a.cpp\n",
	})
	_, err := r.Apply(context.Background(), NewMoveEvent("/ws/src/a.cpp", "/ws/src/b.cpp"))
	if !errors.Is(err, manifest.ErrParse) {
		t.Fatalf("Apply() error = %v, want ErrParse", err)
	}
}

func TestMoveConservesEntries(t *testing.T) {
	t.Parallel()

	fsys, r := newFixture(t, map[string]string{
		"/ws/a/resource.yml": "interfaces: [m.cppm, k.cppm, m.cppm]\nimpls: [m.cppm]\nversion: 2\n",
		"/ws/b/resource.yml": "interfaces: [n.cppm]\nother: [mm.cppm]\n",
	})
	before := countEverywhere(t, fsys, "/ws/b", "mm.cppm")

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/m.cppm", "/ws/b/mm.cppm"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if report.Outcome != OutcomeMoved {
		t.Fatalf("Outcome = %v, want moved", report.Outcome)
	}
	if report.MovedTotal() != 3 {
		t.Errorf("MovedTotal() = %d, want 3", report.MovedTotal())
	}

	if got := countEverywhere(t, fsys, "/ws/a", "m.cppm"); got != 0 {
		t.Errorf("old name still listed %d times in source manifest", got)
	}
	if got := countEverywhere(t, fsys, "/ws/b", "mm.cppm"); got != before+3 {
		t.Errorf("new name count in destination = %d, want %d", got, before+3)
	}
	if got := loadList(t, fsys, "/ws/a", "interfaces"); !slices.Equal(got, []string{"k.cppm"}) {
		t.Errorf("source interfaces = %v, want [k.cppm]", got)
	}
	if got := loadList(t, fsys, "/ws/b", "interfaces"); !slices.Equal(got, []string{"n.cppm", "mm.cppm", "mm.cppm"}) {
		t.Errorf("destination interfaces = %v", got)
	}
	if got := loadList(t, fsys, "/ws/b", "impls"); !slices.Equal(got, []string{"mm.cppm"}) {
		t.Errorf("destination impls = %v, want created with moved block", got)
	}
	if want := []string{"/ws/a/resource.yml", "/ws/b/resource.yml"}; !slices.Equal(report.Written, want) {
		t.Errorf("Written = %v, want %v", report.Written, want)
	}
}

func TestMoveCreatesDestinationManifest(t *testing.T) {
	t.Parallel()

	fsys, r := newFixture(t, map[string]string{
		"/ws/a/resource.yml": "sources: [x.cpp, y.cpp]\n",
	})
	if _, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/x.cpp", "/ws/b/x.cpp")); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got := loadList(t, fsys, "/ws/b", "sources"); !slices.Equal(got, []string{"x.cpp"}) {
		t.Errorf("destination sources = %v", got)
	}
	if got := loadList(t, fsys, "/ws/a", "sources"); !slices.Equal(got, []string{"y.cpp"}) {
		t.Errorf("source sources = %v", got)
	}
}

func TestMoveNoMatchDoesNotTouchEitherManifest(t *testing.T) {
	t.Parallel()

	const src = "sources: [x.cpp]\n"
	fsys, r := newFixture(t, map[string]string{
		"/ws/a/resource.yml": src,
		"/ws/b/resource.yml": "sources: [y.cpp]\n",
	})

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/z.cpp", "/ws/b/z.cpp"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if report.Outcome != OutcomeNoMatch || len(report.Written) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if n := fsys.opened["/ws/b/resource.yml"]; n != 0 {
		t.Errorf("destination manifest opened %d times, want 0", n)
	}
	if got := readFile(t, fsys.Fs, "/ws/a/resource.yml"); got != src {
		t.Errorf("source manifest rewritten:\n%s", got)
	}
}

func TestMoveDestinationShapeWarning(t *testing.T) {
	t.Parallel()

	fsys, r := newFixture(t, map[string]string{
		"/ws/a/resource.yml": "sources: [x.cpp]\nheaders: [x.cpp]\n",
		"/ws/b/resource.yml": "sources: not-a-list\n",
	})

	report, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/x.cpp", "/ws/b/x.cpp"))
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Category != "sources" {
		t.Fatalf("Warnings = %+v, want one for sources", report.Warnings)
	}
	if got := loadList(t, fsys, "/ws/b", "headers"); !slices.Equal(got, []string{"x.cpp"}) {
		t.Errorf("headers = %v, want merged despite warning on sources", got)
	}
	m, _ := manifest.NewStore(fsys, "").Load("/ws/b")
	v, _ := m.Lookup("sources")
	if s, ok := v.(*manifest.Scalar); !ok || s.String() != "not-a-list" {
		t.Errorf("sources = %#v, want untouched scalar", v)
	}
}

func TestMoveMalformedDestinationLeavesSource(t *testing.T) {
	t.Parallel()

	const src = "sources: [x.cpp]\n"
	fsys, r := newFixture(t, map[string]string{
		"/ws/a/resource.yml": src,
		"/ws/b/resource.yml": "sources: [\n",
	})

	_, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/x.cpp", "/ws/b/x.cpp"))
	if !errors.Is(err, manifest.ErrParse) {
		t.Fatalf("Apply() error = %v, want ErrParse", err)
	}
	if got := readFile(t, fsys.Fs, "/ws/a/resource.yml"); got != src {
		t.Errorf("source manifest modified:\n%s", got)
	}
}

func TestMoveOutOfAnchoredListKeepsSourceLoadable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantSrc  map[string][]string
		wantDest map[string][]string
	}{
		{
			name: "aliased list",
			src:  "sources: &src [x.cpp, y.cpp]\nmirror: *src\n",
			wantSrc: map[string][]string{
				"sources": {"y.cpp"},
				"mirror":  {"y.cpp"},
			},
			wantDest: map[string][]string{
				"sources": {"z.cpp"},
				"mirror":  {"z.cpp"},
			},
		},
		{
			name: "aliased element",
			src:  "sources: [&f x.cpp, y.cpp]\nheaders: [*f, y.h]\n",
			wantSrc: map[string][]string{
				"sources": {"y.cpp"},
				"headers": {"y.h"},
			},
			wantDest: map[string][]string{
				"sources": {"z.cpp"},
				"headers": {"z.cpp"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys, r := newFixture(t, map[string]string{"/ws/a/resource.yml": tt.src})
			rep, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/x.cpp", "/ws/b/z.cpp"))
			if err != nil {
				t.Fatalf("Apply() error: %v", err)
			}
			if rep.Outcome != OutcomeMoved {
				t.Fatalf("Outcome = %v, want %v", rep.Outcome, OutcomeMoved)
			}
			for cat, want := range tt.wantSrc {
				if got := loadList(t, fsys.Fs, "/ws/a", cat); !slices.Equal(got, want) {
					t.Errorf("source %s = %v, want %v", cat, got, want)
				}
			}
			for cat, want := range tt.wantDest {
				if got := loadList(t, fsys.Fs, "/ws/b", cat); !slices.Equal(got, want) {
					t.Errorf("destination %s = %v, want %v", cat, got, want)
				}
			}

			// A later rename in the source directory still parses the file.
			if _, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/y.cpp", "/ws/a/w.cpp")); err != nil {
				t.Fatalf("rename after move error: %v", err)
			}
		})
	}
}

func TestMoveRecursiveAliasIsParseError(t *testing.T) {
	t.Parallel()

	const src = "sources: &s [x.cpp, *s]\n"
	fsys, r := newFixture(t, map[string]string{"/ws/a/resource.yml": src})
	_, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/x.cpp", "/ws/b/x.cpp"))
	if !errors.Is(err, manifest.ErrParse) {
		t.Fatalf("Apply() error = %v, want ErrParse", err)
	}
	if got := readFile(t, fsys.Fs, "/ws/a/resource.yml"); got != src {
		t.Errorf("source manifest modified:\n%s", got)
	}
	if exists, _ := afero.Exists(fsys.Fs, "/ws/b/resource.yml"); exists {
		t.Error("destination manifest was created")
	}
}

func TestApplyHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	_, r := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Apply(ctx, NewMoveEvent("/ws/a", "/ws/b")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Apply() error = %v, want context.Canceled", err)
	}
}

func TestConcurrentMovesWithLocksLoseNothing(t *testing.T) {
	t.Parallel()

	const files = 20
	names := make([]string, files)
	for i := range files {
		names[i] = "f" + strconv.Itoa(i) + ".cpp"
	}

	fsys := afero.NewMemMapFs()
	src := manifest.New("/ws/a")
	src.Set("sources", manifest.NewList(names...))
	store := manifest.NewStore(fsys, "")
	if err := store.Save(src); err != nil {
		t.Fatal(err)
	}
	r := New(Options{Store: store, Locks: lock.NewKeyed()})

	errs := make(chan error, files)
	for _, name := range names {
		go func() {
			_, err := r.Apply(context.Background(), NewMoveEvent("/ws/a/"+name, "/ws/b/"+name))
			errs <- err
		}()
	}
	for range files {
		if err := <-errs; err != nil {
			t.Fatalf("Apply() error: %v", err)
		}
	}

	if got := loadList(t, fsys, "/ws/a", "sources"); len(got) != 0 {
		t.Errorf("source still lists %v", got)
	}
	got := loadList(t, fsys, "/ws/b", "sources")
	slices.Sort(got)
	want := slices.Clone(names)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("destination = %v, want all %d files", got, files)
	}
}
