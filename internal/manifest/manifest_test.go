// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Manifest {
	t.Helper()
	m, err := Parse("/ws/src", []byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return m
}

func listNames(t *testing.T, m *Manifest, category string) []string {
	t.Helper()
	v, ok := m.Lookup(category)
	if !ok {
		t.Fatalf("category %q missing", category)
	}
	l, ok := v.(*List)
	if !ok {
		t.Fatalf("category %q is %T, want *List", category, v)
	}
	return l.Names()
}

func TestParseEmptyDocuments(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "\n", "# only a comment\n", "~\n", "null\n"} {
		m := mustParse(t, src)
		if got := m.Categories(); len(got) != 0 {
			t.Errorf("Parse(%q) categories = %v, want none", src, got)
		}
	}
}

func TestParseRejectsNonMappingRoot(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"- a.cpp\n- b.cpp\n", "just text\n"} {
		if _, err := Parse("/ws", []byte(src)); err == nil {
			t.Errorf("Parse(%q) expected error", src)
		}
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	if _, err := Parse("/ws", []byte("sources: [a.cpp\n")); err == nil {
		t.Fatal("expected decoder error for unterminated flow sequence")
	}
}

func TestValueClassification(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
sources: [a.cpp, b.cpp]
version: "1.0"
options:
  strict: true
nothing: null
`)

	tests := []struct {
		category string
		check    func(Value) bool
	}{
		{"sources", func(v Value) bool { _, ok := v.(*List); return ok }},
		{"version", func(v Value) bool { _, ok := v.(*Scalar); return ok }},
		{"options", func(v Value) bool { _, ok := v.(*Mapping); return ok }},
		{"nothing", func(v Value) bool { _, ok := v.(*Opaque); return ok }},
	}
	for _, tt := range tests {
		v, ok := m.Lookup(tt.category)
		if !ok {
			t.Fatalf("Lookup(%q) missing", tt.category)
		}
		if !tt.check(v) {
			t.Errorf("Lookup(%q) has unexpected type %T", tt.category, v)
		}
	}
}

func TestListReplaceKeepsPositionAndDuplicates(t *testing.T) {
	t.Parallel()

	m := mustParse(t, "sources: [a.cpp, b.cpp, a.cpp, 7]\n")
	v, _ := m.Lookup("sources")
	l := v.(*List)

	if n := l.Replace("a.cpp", "c.cpp"); n != 2 {
		t.Fatalf("Replace() = %d, want 2", n)
	}
	if got, want := l.Names(), []string{"c.cpp", "b.cpp", "c.cpp"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if l.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (non-string element kept)", l.Len())
	}
}

func TestListNonStringElementsNeverMatch(t *testing.T) {
	t.Parallel()

	m := mustParse(t, "ids: [7, \"7\"]\n")
	v, _ := m.Lookup("ids")
	if n := v.(*List).Count("7"); n != 1 {
		t.Errorf("Count(7) = %d, want 1 (only the quoted string)", n)
	}
}

func TestListPartition(t *testing.T) {
	t.Parallel()

	m := mustParse(t, "sources: [a.cpp, b.cpp, a.cpp, c.cpp]\n")
	v, _ := m.Lookup("sources")
	l := v.(*List)

	matched, remaining := l.Partition("a.cpp")
	if got, want := matched.Names(), []string{"a.cpp", "a.cpp"}; !slices.Equal(got, want) {
		t.Errorf("matched = %v, want %v", got, want)
	}
	if got, want := remaining.Names(), []string{"b.cpp", "c.cpp"}; !slices.Equal(got, want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
	if l.Len() != 4 {
		t.Errorf("receiver modified: Len() = %d", l.Len())
	}
}

func TestSetAppendsNewCategoryAtEnd(t *testing.T) {
	t.Parallel()

	m := mustParse(t, "b: [x]\na: [y]\n")
	m.Set("c", NewList("z"))
	m.Set("a", NewList("w"))

	if got, want := m.Categories(), []string{"b", "a", "c"}; !slices.Equal(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
	if got := listNames(t, m, "a"); !slices.Equal(got, []string{"w"}) {
		t.Errorf("a = %v, want [w]", got)
	}
}

func TestEncodeRoundTripPreservesNonListValues(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
resources: [a, b]
version: "1.0"
build:
  flags: [-O2, -g]
  target: lib
`)
	v, _ := m.Lookup("resources")
	v.(*List).Replace("a", "c")

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	again := mustParse(t, string(data))

	if got := listNames(t, again, "resources"); !slices.Equal(got, []string{"c", "b"}) {
		t.Errorf("resources = %v, want [c b]", got)
	}
	ver, _ := again.Lookup("version")
	if s, ok := ver.(*Scalar); !ok || s.String() != "1.0" {
		t.Errorf("version = %#v, want scalar 1.0", ver)
	}
	if !strings.Contains(string(data), `"1.0"`) {
		t.Errorf("version quoting lost:\n%s", data)
	}
	build, _ := again.Lookup("build")
	if mp, ok := build.(*Mapping); !ok || mp.Len() != 2 {
		t.Errorf("build = %#v, want mapping with 2 keys", build)
	}
}

func TestParseErrorMatchesSentinel(t *testing.T) {
	t.Parallel()

	err := error(&ParseError{Path: "/ws/resource.yml", Err: errors.New("boom")})
	if !errors.Is(err, ErrParse) {
		t.Error("errors.Is(ParseError, ErrParse) = false")
	}
	if !strings.Contains(err.Error(), "/ws/resource.yml") {
		t.Errorf("Error() = %q, want path included", err.Error())
	}
}

func TestAliasesClassifiedByTarget(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
sources: &src [a.cpp, &f b.cpp]
mirror: *src
headers: [*f, c.h]
`)
	if got, want := listNames(t, m, "mirror"), []string{"a.cpp", "b.cpp"}; !slices.Equal(got, want) {
		t.Errorf("mirror = %v, want %v", got, want)
	}
	if got, want := listNames(t, m, "headers"), []string{"b.cpp", "c.h"}; !slices.Equal(got, want) {
		t.Errorf("headers = %v, want %v", got, want)
	}

	v, _ := m.Lookup("headers")
	if n := v.(*List).Replace("b.cpp", "d.cpp"); n != 1 {
		t.Errorf("Replace() = %d, want 1", n)
	}
	// The anchored element was rewritten, so the alias follows.
	if got, want := listNames(t, m, "sources"), []string{"a.cpp", "d.cpp"}; !slices.Equal(got, want) {
		t.Errorf("sources = %v, want %v", got, want)
	}
}

func TestExpandAliasesAllowsRemovingAnchoredEntries(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
sources: &src [x.cpp, y.cpp]
mirror: *src
headers: [&f x.h, y.h]
extra: [*f]
`)
	if err := m.ExpandAliases(); err != nil {
		t.Fatalf("ExpandAliases() error: %v", err)
	}

	for _, cat := range []struct{ name, drop string }{{"sources", "x.cpp"}, {"headers", "x.h"}} {
		v, _ := m.Lookup(cat.name)
		_, remaining := v.(*List).Partition(cat.drop)
		m.Set(cat.name, remaining)
	}

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	reloaded, err := Parse("/ws/src", data)
	if err != nil {
		t.Fatalf("re-Parse() error: %v\n%s", err, data)
	}
	tests := []struct {
		category string
		want     []string
	}{
		{"sources", []string{"y.cpp"}},
		{"mirror", []string{"x.cpp", "y.cpp"}},
		{"headers", []string{"y.h"}},
		{"extra", []string{"x.h"}},
	}
	for _, tt := range tests {
		if got := listNames(t, reloaded, tt.category); !slices.Equal(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.category, got, tt.want)
		}
	}
}

func TestExpandAliasesRejectsRecursion(t *testing.T) {
	t.Parallel()

	m, err := Parse("/ws/src", []byte("sources: &s [a.cpp, *s]\n"))
	if err != nil {
		return // the decoder rejected it
	}
	if err := m.ExpandAliases(); err == nil {
		t.Fatal("ExpandAliases() succeeded on a self-referencing list")
	}
}

func TestPartitionRemainingKeepsCommentsAndAnchor(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `# sources of the module
sources: &src # primary
  - a.cpp
  - b.cpp
`)
	v, _ := m.Lookup("sources")
	_, remaining := v.(*List).Partition("a.cpp")
	m.Set("sources", remaining)

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := string(data)
	for _, want := range []string{"# sources of the module", "# primary", "&src", "- b.cpp"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded manifest missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "a.cpp") {
		t.Errorf("a.cpp still present:\n%s", out)
	}
}
