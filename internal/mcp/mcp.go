// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mcp manages the Model Context Protocol server configuration file.
// Servers are only configured here; launching them is out of scope.
package mcp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/moly-tui/internal/util"
)

// FileName is the MCP configuration file name inside the data directory.
const FileName = "mcp.yaml"

// ErrServerNotFound is returned when a server id is not configured.
var ErrServerNotFound = errors.New("mcp server not found")

// Transport kinds.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportSSE   = "sse"
)

// =============================================================================
// SERVER
// =============================================================================

// Server is one configured MCP server. Stdio servers set Command; network
// servers set URL and optionally Type ("http" or "sse").
type Server struct {
	ID string `yaml:"-"`

	// Stdio transport fields
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// HTTP/SSE transport fields
	URL     string            `yaml:"url,omitempty"`
	Type    string            `yaml:"type,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`

	Enabled          bool   `yaml:"enabled"`
	WorkingDirectory string `yaml:"working_directory,omitempty"`
}

// Transport returns the transport kind, or "" when neither a command nor a
// URL is set.
func (s Server) Transport() string {
	switch {
	case s.Command != "":
		return TransportStdio
	case s.URL != "" && s.Type == TransportSSE:
		return TransportSSE
	case s.URL != "":
		return TransportHTTP
	}
	return ""
}

// Target returns the command line or URL for display.
func (s Server) Target() string {
	if s.Command != "" {
		target := s.Command
		for _, a := range s.Args {
			target += " " + a
		}
		return target
	}
	return s.URL
}

// ServerList is an ordered set of servers, stored in YAML as a mapping from
// id to server so the file reads like the common MCP configuration format.
type ServerList []Server

// MarshalYAML encodes the list as an ordered mapping.
func (l ServerList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, s := range l {
		var value yaml.Node
		if err := value.Encode(s); err != nil {
			return nil, fmt.Errorf("encode server %q: %w", s.ID, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.ID},
			&value)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping, keeping file order. Servers without an
// explicit enabled key are enabled.
func (l *ServerList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: servers must be a mapping", node.Line)
	}
	out := make(ServerList, 0, len(node.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		id := node.Content[i].Value
		if seen[id] {
			return fmt.Errorf("line %d: duplicate server %q", node.Content[i].Line, id)
		}
		seen[id] = true

		s := Server{Enabled: true}
		if err := node.Content[i+1].Decode(&s); err != nil {
			return fmt.Errorf("server %q: %w", id, err)
		}
		s.ID = id
		out = append(out, s)
	}
	*l = out
	return nil
}

// =============================================================================
// CONFIG
// =============================================================================

// Config is the MCP configuration document.
type Config struct {
	Servers       ServerList `yaml:"servers"`
	Enabled       bool       `yaml:"enabled"`
	DangerousMode bool       `yaml:"dangerous_mode_enabled"`
}

// Default returns an empty, enabled configuration.
func Default() Config {
	return Config{Servers: ServerList{}, Enabled: true}
}

// Sample returns a configuration with one example of each transport.
func Sample() Config {
	cfg := Default()
	cfg.Servers = ServerList{
		{ID: "my-mcp-server", URL: "http://localhost:8931", Type: TransportHTTP, Enabled: true},
		{
			ID:      "filesystem",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "~/Desktop"},
			Enabled: false,
		},
	}
	return cfg
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Servers = make(ServerList, len(c.Servers))
	for i, s := range c.Servers {
		s.Args = append([]string(nil), s.Args...)
		s.Env = cloneMap(s.Env)
		s.Headers = cloneMap(s.Headers)
		out.Servers[i] = s
	}
	return out
}

// Server returns the server with id.
func (c Config) Server(id string) (Server, bool) {
	for _, s := range c.Servers {
		if s.ID == id {
			return s, true
		}
	}
	return Server{}, false
}

// EnabledServers returns the enabled servers in file order.
func (c Config) EnabledServers() []Server {
	var out []Server
	for _, s := range c.Servers {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// SetServerEnabled returns a copy of c with the server's enabled flag set.
func (c Config) SetServerEnabled(id string, enabled bool) (Config, error) {
	out := c.Clone()
	for i := range out.Servers {
		if out.Servers[i].ID == id {
			out.Servers[i].Enabled = enabled
			return out, nil
		}
	}
	return c, fmt.Errorf("%w: %q", ErrServerNotFound, id)
}

// Validate reports servers that have neither a command nor a URL.
func (c Config) Validate() error {
	var errs []error
	for _, s := range c.Servers {
		if s.Transport() == "" {
			errs = append(errs, fmt.Errorf("server %q: needs a command or a url", s.ID))
		}
		if s.Type != "" && s.Type != TransportHTTP && s.Type != TransportSSE {
			errs = append(errs, fmt.Errorf("server %q: unknown type %q", s.ID, s.Type))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Load reads the configuration at path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if cfg.Servers == nil {
		cfg.Servers = ServerList{}
	}
	return cfg, nil
}

// Save atomically writes the configuration to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	header := []byte("# moly MCP server configuration\n")
	return util.AtomicWriteFile(path, append(header, data...), 0644)
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
