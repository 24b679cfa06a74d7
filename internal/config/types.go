// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cxxmod/cxxmod/internal/events"
	"github.com/cxxmod/cxxmod/internal/logging"
	"github.com/cxxmod/cxxmod/internal/platform"
	"github.com/cxxmod/cxxmod/internal/prompt"
	"github.com/cxxmod/cxxmod/internal/watch"
)

const (
	// PromptAuto prompts when stdin is a terminal.
	PromptAuto PromptMode = "auto"
	// PromptNever answers from module declarations without asking.
	PromptNever PromptMode = "never"

	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var (
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidToolCommand is returned for a blank tool command.
	ErrInvalidToolCommand = errors.New("invalid tool command")
	// ErrInvalidManifestName is returned for a manifest name that is not a
	// single portable file name.
	ErrInvalidManifestName = errors.New("invalid manifest name")
	// ErrInvalidDebounce is returned for a negative debounce.
	ErrInvalidDebounce = errors.New("invalid debounce")
	// ErrInvalidPromptMode is returned for an unknown PromptMode.
	ErrInvalidPromptMode = errors.New("invalid prompt mode")
	// ErrInvalidLogLevel is returned for an unknown LogLevel.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

type (
	// PromptMode controls interactive prompting.
	PromptMode string

	// LogLevel is the minimum level of emitted records.
	LogLevel string

	// Config is the complete cxxmod configuration.
	Config struct {
		Tool       ToolConfig       `json:"tool" mapstructure:"tool"`
		Manifest   ManifestConfig   `json:"manifest" mapstructure:"manifest"`
		Watch      WatchConfig      `json:"watch" mapstructure:"watch"`
		Events     EventsConfig     `json:"events" mapstructure:"events"`
		Completion CompletionConfig `json:"completion" mapstructure:"completion"`
		Log        LogConfig        `json:"log" mapstructure:"log"`
	}

	// ToolConfig configures the external tool.
	ToolConfig struct {
		Command string `json:"command" mapstructure:"command"`
		Root    string `json:"root" mapstructure:"root"`
	}

	// ManifestConfig configures resource manifests.
	ManifestConfig struct {
		Name                string `json:"name" mapstructure:"name"`
		Lock                bool   `json:"lock" mapstructure:"lock"`
		SkipUnchangedWrites bool   `json:"skip_unchanged_writes" mapstructure:"skip_unchanged_writes"`
	}

	// WatchConfig configures the file watcher.
	WatchConfig struct {
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		Ignore   []string      `json:"ignore" mapstructure:"ignore"`
	}

	// EventsConfig configures how file events become tool commands.
	EventsConfig struct {
		AddDirs        events.AddDirsPolicy `json:"add_dirs" mapstructure:"add_dirs"`
		ForwardRenames bool                 `json:"forward_renames" mapstructure:"forward_renames"`
		Prompt         PromptMode           `json:"prompt" mapstructure:"prompt"`
		PromptTheme    prompt.Theme         `json:"prompt_theme" mapstructure:"prompt_theme"`
		Visible        bool                 `json:"visible" mapstructure:"visible"`
	}

	// CompletionConfig configures module-name completion.
	CompletionConfig struct {
		ModulesFile string `json:"modules_file" mapstructure:"modules_file"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level  LogLevel       `json:"level" mapstructure:"level"`
		Format logging.Format `json:"format" mapstructure:"format"`
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Tool: ToolConfig{Command: "cxxmod-tool"},
		Manifest: ManifestConfig{
			Name: "resource.yml",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
			Ignore:   []string{"build/**", "out/**"},
		},
		Events: EventsConfig{
			AddDirs:     events.AddDirsAsk,
			Prompt:      PromptAuto,
			PromptTheme: prompt.ThemeDefault,
		},
		Completion: CompletionConfig{ModulesFile: "modules.txt"},
		Log: LogConfig{
			Level:  LevelInfo,
			Format: logging.FormatText,
		},
	}
}

// IsValid returns whether the PromptMode is known.
func (m PromptMode) IsValid() (bool, []error) {
	switch m {
	case PromptAuto, PromptNever:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidPromptMode, string(m))}
	}
}

// IsValid returns whether the LogLevel is known.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidLogLevel, string(l))}
	}
}

// IsValid returns whether every field holds an acceptable value.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	add := func(_ bool, fieldErrs []error) { errs = append(errs, fieldErrs...) }

	if strings.TrimSpace(c.Tool.Command) == "" {
		errs = append(errs, fmt.Errorf("tool.command: %w: empty", ErrInvalidToolCommand))
	}
	if name := c.Manifest.Name; !platform.IsPortableFileName(name) {
		errs = append(errs, fmt.Errorf("manifest.name: %w: %q", ErrInvalidManifestName, name))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: %w: %s", ErrInvalidDebounce, c.Watch.Debounce))
	}
	if err := watch.ValidatePatterns(c.Watch.Ignore); err != nil {
		errs = append(errs, fmt.Errorf("watch.ignore: %w", err))
	}
	add(c.Events.AddDirs.IsValid())
	add(c.Events.Prompt.IsValid())
	add(c.Events.PromptTheme.IsValid())
	add(c.Log.Level.IsValid())
	add(c.Log.Format.IsValid())

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// ToolRoot returns the root passed to the tool for a workspace.
func (c Config) ToolRoot(workspace string) string {
	return resolve(workspace, c.Tool.Root)
}

// ModulesFile returns the completion modules file for a workspace.
func (c Config) ModulesFile(workspace string) string {
	return resolve(workspace, c.Completion.ModulesFile)
}

func resolve(base, p string) string {
	switch {
	case p == "":
		return base
	case filepath.IsAbs(p):
		return filepath.Clean(p)
	default:
		return filepath.Join(base, p)
	}
}
