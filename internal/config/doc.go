// SPDX-License-Identifier: MPL-2.0

// Package config loads cxxmod settings using Viper with CUE as the file format.
//
// Settings are layered: built-in defaults, then the user file
// ($XDG_CONFIG_HOME/cxxmod/config.cue or the platform equivalent), then the
// workspace file (<root>/cxxmod.cue), then CXXMOD_* environment variables,
// then explicit overrides from command-line flags. Every file is validated
// against the embedded #Config schema before it is merged.
package config
