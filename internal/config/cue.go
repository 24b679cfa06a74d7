// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// maxConfigFileSize bounds how much of a config file is compiled.
const maxConfigFileSize = 1 << 20

//go:embed config_schema.cue
var configSchema string

// decodeCUE validates data against #Config and returns it as a nested map
// suitable for viper.MergeConfigMap.
func decodeCUE(data []byte, path string) (map[string]any, error) {
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("internal error: compile config schema: %w", err)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if err := userValue.Err(); err != nil {
		return nil, formatCUEError(err, path)
	}

	// Optional fields are absent rather than incomplete, so concreteness is
	// left to Decode.
	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, formatCUEError(err, path)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, formatCUEError(err, path)
	}
	return out, nil
}

// formatCUEError flattens CUE errors into "<file>: <path>: <message>" lines.
func formatCUEError(err error, path string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		field := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if field != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
			msg = field + ": " + msg
		}
		lines = append(lines, msg)
	}
	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", path, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", path, strings.Join(lines, "\n  "))
}

// fieldPath renders ["watch", "ignore", "0"] as watch.ignore[0].
func fieldPath(parts []string) string {
	var sb strings.Builder
	for i, p := range parts {
		if _, err := strconv.Atoi(p); err == nil && i > 0 {
			sb.WriteString("[" + p + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(p)
	}
	return sb.String()
}
