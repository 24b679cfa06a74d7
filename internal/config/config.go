// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/cxxmod/cxxmod/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "cxxmod"
	// EnvPrefix prefixes environment overrides (CXXMOD_TOOL_COMMAND, ...).
	EnvPrefix = "CXXMOD"
	// UserFileName is the config file inside the user config directory.
	UserFileName = "config.cue"
	// WorkspaceFileName is the config file at the workspace root.
	WorkspaceFileName = "cxxmod.cue"
)

// ConfigDir returns the user configuration directory: %APPDATA%\cxxmod on
// Windows, ~/Library/Application Support/cxxmod on macOS and
// $XDG_CONFIG_HOME/cxxmod (default ~/.config/cxxmod) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

func load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	files, err := configFiles(opts)
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		if err := mergeFile(v, path); err != nil {
			return nil, loadError(path, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, loadError(strings.Join(files, ", "), fmt.Errorf("failed to parse config: %w", err))
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Run 'cxxmod config show' to inspect the effective values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return &Loaded{Config: &cfg, Files: files}, nil
}

// configFiles lists the files to merge, lowest precedence first.
func configFiles(opts LoadOptions) ([]string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'cxxmod config init' to create a workspace config").
				Wrap(fmt.Errorf("config file not found: %w", fs.ErrNotExist)).
				BuildError()
		}
		return []string{opts.ConfigFilePath}, nil
	}

	var files []string
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return nil, err
		}
	}
	if p := filepath.Join(dir, UserFileName); fileExists(p) {
		files = append(files, p)
	}
	if opts.WorkspaceRoot != "" {
		if p := filepath.Join(opts.WorkspaceRoot, WorkspaceFileName); fileExists(p) {
			files = append(files, p)
		}
	}
	return files, nil
}

func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	m, err := decodeCUE(data, path)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func loadError(resource string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(resource).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values match the schema; unknown keys are rejected").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("tool.command", d.Tool.Command)
	v.SetDefault("tool.root", d.Tool.Root)
	v.SetDefault("manifest.name", d.Manifest.Name)
	v.SetDefault("manifest.lock", d.Manifest.Lock)
	v.SetDefault("manifest.skip_unchanged_writes", d.Manifest.SkipUnchangedWrites)
	v.SetDefault("watch.debounce", d.Watch.Debounce.String())
	v.SetDefault("watch.ignore", d.Watch.Ignore)
	v.SetDefault("events.add_dirs", string(d.Events.AddDirs))
	v.SetDefault("events.forward_renames", d.Events.ForwardRenames)
	v.SetDefault("events.prompt", string(d.Events.Prompt))
	v.SetDefault("events.prompt_theme", string(d.Events.PromptTheme))
	v.SetDefault("events.visible", d.Events.Visible)
	v.SetDefault("completion.modules_file", d.Completion.ModulesFile)
	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", string(d.Log.Format))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteWorkspaceFile writes cfg as <root>/cxxmod.cue. It refuses to
// overwrite an existing file unless force is set.
func WriteWorkspaceFile(root string, cfg *Config, force bool) (string, error) {
	path := filepath.Join(root, WorkspaceFileName)
	if !force && fileExists(path) {
		return path, fmt.Errorf("%s: %w", path, fs.ErrExist)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return path, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a CUE document accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// cxxmod configuration\n\n")

	fmt.Fprintf(&sb, "tool: {\n\tcommand: %q\n", cfg.Tool.Command)
	if cfg.Tool.Root != "" {
		fmt.Fprintf(&sb, "\troot: %q\n", cfg.Tool.Root)
	}
	sb.WriteString("}\n\n")

	fmt.Fprintf(&sb, "manifest: {\n\tname: %q\n\tlock: %v\n\tskip_unchanged_writes: %v\n}\n\n",
		cfg.Manifest.Name, cfg.Manifest.Lock, cfg.Manifest.SkipUnchangedWrites)

	fmt.Fprintf(&sb, "watch: {\n\tdebounce: %q\n\tignore: [", cfg.Watch.Debounce.String())
	for i, pat := range cfg.Watch.Ignore {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", pat)
	}
	sb.WriteString("]\n}\n\n")

	fmt.Fprintf(&sb, "events: {\n\tadd_dirs: %q\n\tforward_renames: %v\n\tprompt: %q\n\tprompt_theme: %q\n\tvisible: %v\n}\n\n",
		cfg.Events.AddDirs, cfg.Events.ForwardRenames, cfg.Events.Prompt, cfg.Events.PromptTheme, cfg.Events.Visible)

	fmt.Fprintf(&sb, "completion: {\n\tmodules_file: %q\n}\n\n", cfg.Completion.ModulesFile)

	fmt.Fprintf(&sb, "log: {\n\tlevel: %q\n\tformat: %q\n}\n", cfg.Log.Level, cfg.Log.Format)
	return sb.String()
}
