// SPDX-License-Identifier: MPL-2.0

// Package logging builds the slog loggers used across cxxmod. Records are
// rendered by a charmbracelet/log handler so watcher output matches the
// styling of the rest of the CLI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// FormatText renders styled, human-oriented lines.
	FormatText Format = "text"
	// FormatLogfmt renders key=value lines.
	FormatLogfmt Format = "logfmt"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
)

// ErrInvalidFormat is returned for unknown log formats.
var ErrInvalidFormat = errors.New("invalid log format")

type (
	// Format selects the record encoding.
	Format string

	// Options describes logger construction parameters.
	Options struct {
		// Level is one of debug, info, warn, error. Empty means info.
		Level string
		// Format selects the encoding. Empty means text.
		Format Format
		// Prefix is printed before every message in text output.
		Prefix string
		// Timestamps enables the time field.
		Timestamps bool
		// Output defaults to os.Stderr.
		Output io.Writer
	}
)

// IsValid reports whether f is a known format. The zero value is valid.
func (f Format) IsValid() (bool, []error) {
	switch f {
	case "", FormatText, FormatLogfmt, FormatJSON:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q (want text, logfmt or json)", ErrInvalidFormat, string(f))}
	}
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	if ok, errs := opts.Format.IsValid(); !ok {
		return nil, errs[0]
	}

	level := log.InfoLevel
	if lv := strings.TrimSpace(opts.Level); lv != "" {
		parsed, err := log.ParseLevel(strings.ToLower(lv))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handler := log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamps,
		TimeFormat:      time.TimeOnly,
		Formatter:       formatter(opts.Format),
	})
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func formatter(f Format) log.Formatter {
	switch f {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
