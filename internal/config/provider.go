// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath, when set, is the only file loaded. It must exist.
		ConfigFilePath string
		// ConfigDirPath overrides the user config directory.
		ConfigDirPath string
		// WorkspaceRoot is searched for the workspace config file.
		WorkspaceRoot string
		// Overrides are applied last, keyed by dotted setting name.
		Overrides map[string]any
	}

	// Loaded is a configuration together with the files it came from.
	Loaded struct {
		Config *Config
		Files  []string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider reading from disk.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested sources.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	return load(ctx, opts)
}
