// SPDX-License-Identifier: MPL-2.0

package modsrc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		isDir bool
		want  Kind
	}{
		{"/ws/a.cppm", false, KindInterface},
		{"/ws/a.IXX", false, KindInterface},
		{"/ws/a.cpp", false, KindImplementation},
		{"/ws/a.cc", false, KindImplementation},
		{"/ws/a.h", false, KindOther},
		{"/ws/resource.yml", false, KindOther},
		{"/ws/lib", true, KindDirectory},
		{"/ws/lib.cpp", true, KindDirectory},
	}
	for _, tt := range tests {
		if got := Classify(tt.path, tt.isDir); got != tt.want {
			t.Errorf("Classify(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
	if !KindInterface.IsSource() || KindDirectory.IsSource() {
		t.Error("IsSource() misclassified")
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		found   bool
		want    Declaration
		wantStr string
	}{
		{
			name:    "exported interface after global fragment",
			src:     "module;\n#include <vector>\nexport module app.core;\n",
			found:   true,
			want:    Declaration{Line: 3, Exported: true, Module: "app.core"},
			wantStr: "app.core",
		},
		{
			name:    "implementation unit",
			src:     "// impl\nmodule app.core;\n",
			found:   true,
			want:    Declaration{Line: 2, Module: "app.core"},
			wantStr: "app.core",
		},
		{
			name:    "partition with attribute",
			src:     "export module app.core : detail [[deprecated]];\n",
			found:   true,
			want:    Declaration{Line: 1, Exported: true, Module: "app.core", Partition: "detail"},
			wantStr: "app.core:detail",
		},
		{
			name:  "private fragment only",
			src:   "module :private;\n",
			found: false,
		},
		{
			name:  "no declaration",
			src:   "int main() { return 0; }\n",
			found: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok, err := Find(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("Find() error: %v", err)
			}
			if ok != tt.found {
				t.Fatalf("Find() found = %v, want %v", ok, tt.found)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("Find() = %+v, want %+v", got, tt.want)
			}
			if got.Name() != tt.wantStr {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.wantStr)
			}
		})
	}
}

func TestFindFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.cppm")
	if err := os.WriteFile(path, []byte("export module a;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, ok, err := FindFile(nil, path)
	if err != nil || !ok || d.Module != "a" {
		t.Fatalf("FindFile() = %+v, %v, %v", d, ok, err)
	}
	if _, _, err := FindFile(nil, filepath.Join(t.TempDir(), "missing.cppm")); err == nil {
		t.Error("FindFile(missing) expected error")
	}
}
