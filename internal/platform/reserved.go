// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform file name checks.
package platform

import (
	"slices"
	"strings"
)

// windowsReserved are device names Windows refuses as file names, with or
// without an extension.
var windowsReserved = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// IsWindowsReservedName reports whether name, ignoring case and extension,
// is a Windows device name such as "con.yml".
func IsWindowsReservedName(name string) bool {
	stem, _, _ := strings.Cut(strings.ToUpper(name), ".")
	return slices.Contains(windowsReserved, strings.TrimRight(stem, " "))
}

// IsPortableFileName reports whether name is a single path element that can
// be created on every supported platform.
func IsPortableFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) || strings.TrimRight(name, ". ") != name {
		return false
	}
	return !IsWindowsReservedName(name)
}
