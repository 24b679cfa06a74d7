// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrAbsent is returned by Load when the directory has no manifest file.
	// Callers treat it as "directory is untracked", not as a failure.
	ErrAbsent = errors.New("manifest absent")

	// ErrParse is the sentinel matched by every *ParseError.
	ErrParse = errors.New("malformed manifest")
)

// ParseError is returned when a manifest file exists but is not a well-formed
// YAML document whose root is a mapping.
type ParseError struct {
	// Path is the manifest file that failed to parse.
	Path string
	// Err is the underlying decoder error (or shape error for non-mapping roots).
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse so callers can use errors.Is without
// knowing the decoder error.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
