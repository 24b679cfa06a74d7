// SPDX-License-Identifier: MPL-2.0

// Package modsrc classifies C++ module source files and locates their module
// declaration line. It does not parse C++; it only recognises the
// `[export] module name[:partition];` line.
package modsrc
