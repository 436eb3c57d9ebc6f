// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/moly-tui/internal/logging"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/util"
	"github.com/jeranaias/moly-tui/internal/view"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete moly configuration.
type Config struct {
	// DataDir holds preferences, chats, the model catalog and logs.
	// Empty means the config directory.
	DataDir string `toml:"data_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// FetchTimeoutSecs bounds a single provider model-list request.
	FetchTimeoutSecs int `toml:"fetch_timeout"`

	// RefreshIntervalSecs is the periodic model refresh interval (0 = off).
	RefreshIntervalSecs int `toml:"refresh_interval"`

	// StartupView is the view shown when preferences do not name one.
	StartupView string `toml:"startup_view"`

	Providers []ProviderConfig `toml:"providers"`
}

// ProviderConfig is one [[providers]] table.
type ProviderConfig struct {
	ID       string `toml:"id"`
	Name     string `toml:"name,omitempty"`
	Kind     string `toml:"kind,omitempty"`
	Endpoint string `toml:"endpoint,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`

	// Enabled defaults to true when omitted.
	Enabled *bool `toml:"enabled,omitempty"`
}

// IsEnabled reports the enabled flag, defaulting to true.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultLogLevel            = "info"
	DefaultFetchTimeoutSecs    = 15
	DefaultRefreshIntervalSecs = 300
	MaxFetchTimeoutSecs        = 300
	FileName                   = "config.toml"
)

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		LogLevel:            DefaultLogLevel,
		FetchTimeoutSecs:    DefaultFetchTimeoutSecs,
		RefreshIntervalSecs: DefaultRefreshIntervalSecs,
		StartupView:         string(view.Chat),
	}
	cfg.mergeSupported()
	return cfg
}

// FetchTimeout returns the per-provider fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// RefreshInterval returns the periodic refresh interval; zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSecs) * time.Second
}

// StartupViewID returns the parsed startup view, or Chat.
func (c *Config) StartupViewID() view.ID {
	if v, err := view.Parse(c.StartupView); err == nil {
		return v
	}
	return view.Chat
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the moly configuration directory.
// MOLY_HOME overrides the default ~/.moly.
func ConfigDir() (string, error) {
	if dir := os.Getenv("MOLY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".moly"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// ResolvedDataDir returns DataDir, or the config directory when unset.
func (c *Config) ResolvedDataDir() (string, error) {
	if c.DataDir != "" {
		return expandHome(c.DataDir)
	}
	return ConfigDir()
}

// LogPath returns the log file inside dataDir.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "moly.log")
}

// ChatsDir returns the conversation directory inside dataDir.
func ChatsDir(dataDir string) string {
	return filepath.Join(dataDir, "chats")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the configuration from the default path.
// A missing file yields defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the configuration at path with full validation.
// A missing file yields defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg without applying defaults.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// fillDefaults fills in missing values and merges the supported providers.
func (c *Config) fillDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.FetchTimeoutSecs == 0 {
		c.FetchTimeoutSecs = DefaultFetchTimeoutSecs
	}
	if c.StartupView == "" {
		c.StartupView = string(view.Chat)
	}
	c.mergeSupported()
}

// mergeSupported completes listed providers from the supported table and
// appends supported providers the file does not mention.
func (c *Config) mergeSupported() {
	supported := provider.Supported()
	byID := make(map[string]provider.Descriptor, len(supported))
	for _, d := range supported {
		byID[d.ID] = d
	}

	listed := make(map[string]bool, len(c.Providers))
	for i := range c.Providers {
		p := &c.Providers[i]
		listed[p.ID] = true
		def, ok := byID[p.ID]
		if !ok {
			if p.Kind == "" {
				p.Kind = string(provider.KindOpenAI)
			}
			continue
		}
		if p.Name == "" {
			p.Name = def.Name
		}
		if p.Kind == "" {
			p.Kind = string(def.Kind)
		}
		if p.Endpoint == "" {
			p.Endpoint = def.Endpoint
		}
	}

	for _, d := range supported {
		if listed[d.ID] {
			continue
		}
		c.Providers = append(c.Providers, ProviderConfig{
			ID:       d.ID,
			Name:     d.Name,
			Kind:     string(d.Kind),
			Endpoint: d.Endpoint,
		})
	}
}

// =============================================================================
// PROVIDER CONVERSION
// =============================================================================

// Descriptors converts the provider tables into registry descriptors, in
// file order.
func (c *Config) Descriptors() []provider.Descriptor {
	out := make([]provider.Descriptor, 0, len(c.Providers))
	for _, p := range c.Providers {
		out = append(out, provider.Descriptor{
			ID:       p.ID,
			Name:     p.Name,
			Kind:     provider.Kind(p.Kind),
			Endpoint: strings.TrimRight(p.Endpoint, "/"),
			APIKey:   p.APIKey,
			Enabled:  p.IsEnabled(),
		})
	}
	return out
}

// SetProviders replaces the provider tables from registry descriptors.
func (c *Config) SetProviders(ds []provider.Descriptor) {
	c.Providers = make([]ProviderConfig, 0, len(ds))
	for _, d := range ds {
		enabled := d.Enabled
		c.Providers = append(c.Providers, ProviderConfig{
			ID:       d.ID,
			Name:     d.Name,
			Kind:     string(d.Kind),
			Endpoint: d.Endpoint,
			APIKey:   d.APIKey,
			Enabled:  &enabled,
		})
	}
}

// DiffProviders compares two descriptor lists by connection facts and
// returns the descriptors to upsert (new or changed) and the ids to remove.
func DiffProviders(prev, next []provider.Descriptor) (upserts []provider.Descriptor, removed []string) {
	old := make(map[string]provider.Descriptor, len(prev))
	for _, d := range prev {
		old[d.ID] = d
	}
	seen := make(map[string]bool, len(next))
	for _, d := range next {
		seen[d.ID] = true
		if o, ok := old[d.ID]; !ok || !o.SameConnection(d) {
			upserts = append(upserts, d)
		}
	}
	for _, d := range prev {
		if !seen[d.ID] {
			removed = append(removed, d.ID)
		}
	}
	return upserts, removed
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTOML(path)
}

// SaveTOML writes the configuration to path.
// SECURITY: Written with 0600 permissions since the file carries API keys.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func (c *Config) SaveTOML(path string) error {
	var buf bytes.Buffer
	buf.WriteString("# moly configuration file\n")
	buf.WriteString("# Generated by moly - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration. The returned error, if any, is a
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, ValidationError{"log_level", err.Error()})
	}
	if c.FetchTimeoutSecs < 1 || c.FetchTimeoutSecs > MaxFetchTimeoutSecs {
		errs = append(errs, ValidationError{"fetch_timeout",
			fmt.Sprintf("must be between 1 and %d seconds", MaxFetchTimeoutSecs)})
	}
	if c.RefreshIntervalSecs < 0 {
		errs = append(errs, ValidationError{"refresh_interval", "must not be negative"})
	}
	if _, err := view.Parse(c.StartupView); err != nil {
		errs = append(errs, ValidationError{"startup_view", err.Error()})
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		field := fmt.Sprintf("providers[%d]", i)
		if p.ID == "" {
			errs = append(errs, ValidationError{field + ".id", "must not be empty"})
			continue
		}
		field = fmt.Sprintf("providers[%s]", p.ID)
		if seen[p.ID] {
			errs = append(errs, ValidationError{field, "duplicate id"})
		}
		seen[p.ID] = true
		if !provider.Kind(p.Kind).Valid() {
			errs = append(errs, ValidationError{field + ".kind",
				fmt.Sprintf("unknown kind %q (want openai or ollama)", p.Kind)})
		}
		if err := validateEndpoint(p.Endpoint); err != nil {
			errs = append(errs, ValidationError{field + ".endpoint", err.Error()})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MOLY_LOG_LEVEL: overrides log_level
//   - MOLY_DATA_DIR: overrides data_dir
//   - MOLY_OLLAMA_URL: overrides the endpoint of every ollama provider
//   - <PROVIDER>_API_KEY: overrides api_key, e.g. OPENAI_API_KEY
func (c *Config) ApplyEnvOverrides() {
	if level := os.Getenv("MOLY_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if dir := os.Getenv("MOLY_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}

	ollamaURL := os.Getenv("MOLY_OLLAMA_URL")
	for i := range c.Providers {
		p := &c.Providers[i]
		if ollamaURL != "" && p.Kind == string(provider.KindOllama) {
			p.Endpoint = ollamaURL
		}
		if key := os.Getenv(APIKeyEnv(p.ID)); key != "" {
			p.APIKey = key
		}
	}
}

// APIKeyEnv returns the environment variable carrying a provider's key.
func APIKeyEnv(providerID string) string {
	name := strings.ToUpper(providerID)
	name = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
	return name + "_API_KEY"
}

// =============================================================================
// UTILITIES
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Providers = make([]ProviderConfig, len(c.Providers))
	for i, p := range c.Providers {
		if p.Enabled != nil {
			enabled := *p.Enabled
			p.Enabled = &enabled
		}
		out.Providers[i] = p
	}
	return &out
}
