// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for moly.
//
// Configuration lives in a single TOML file with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ProviderConfig: One [[providers]] table
//   - ValidationError: A single invalid field
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MOLY_*, <PROVIDER>_API_KEY)
//   - ~/.moly/config.toml (MOLY_HOME moves the directory)
//   - Built-in defaults
//
// Providers that the file does not mention are merged in from the supported
// provider list, so a fresh install shows every provider.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range cfg.Descriptors() {
//	    reg.Upsert(d.ID, d)
//	}
package config
