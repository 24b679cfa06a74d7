// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestIsWindowsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"CON", true},
		{"con.yml", true},
		{"Lpt1.tar.gz", true},
		{"aux ", true},
		{"console.yml", false},
		{"resource.yml", false},
		{"COM10", false},
	}
	for _, tt := range tests {
		if got := IsWindowsReservedName(tt.name); got != tt.want {
			t.Errorf("IsWindowsReservedName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsPortableFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"resource.yml", true},
		{"modules.yaml", true},
		{"", false},
		{"..", false},
		{"a/b.yml", false},
		{`a\b.yml`, false},
		{"c:x.yml", false},
		{"trailing.", false},
		{"nul.yml", false},
	}
	for _, tt := range tests {
		if got := IsPortableFileName(tt.name); got != tt.want {
			t.Errorf("IsPortableFileName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
