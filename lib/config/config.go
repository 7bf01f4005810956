// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for receptor-provision.
//
// Configuration is loaded from a single YAML file specified by:
//   - the RECEPTOR_PROVISION_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable provisioning runs with no hidden overrides.
// Individual values can still be overridden per invocation by command
// flags (--node-id, --peers), which take priority over the file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the inputs for provisioning one receptor node.
type Config struct {
	// VersionSpec is what pip installs: a package name, a pinned
	// "receptor==1.0.1", or a VCS source such as
	// "git+https://github.com/project-receptor/receptor@devel".
	// Required.
	VersionSpec string `yaml:"version_spec"`

	// ServiceUser is the system account that owns the config and data
	// directories and runs the service.
	ServiceUser string `yaml:"service_user"`

	// NodeID namespaces this host's config file and service instance.
	// Empty means the hostname is used.
	NodeID string `yaml:"node_id"`

	// ConfigDir holds the rendered per-node configuration files.
	ConfigDir string `yaml:"config_dir"`

	// DataDir is the receptor data directory.
	DataDir string `yaml:"data_dir"`

	// Peers lists the addresses this node connects to. Optional; an
	// empty list means no peer block is managed in the rendered
	// config.
	Peers []string `yaml:"peers"`

	// Inventory is an optional path to a JSONC inventory file mapping
	// node IDs to host variables. When set and the inventory has an
	// entry for this node, its peer list replaces Peers.
	Inventory string `yaml:"inventory"`
}

// Default returns the configuration defaults: the receptor package
// from PyPI, the receptor user, and the stock filesystem layout.
func Default() *Config {
	return &Config{
		VersionSpec: "receptor",
		ServiceUser: "receptor",
		ConfigDir:   "/etc/receptor",
		DataDir:     "/var/lib/receptor",
	}
}

// Load reads the config file named by RECEPTOR_PROVISION_CONFIG.
// When the variable is unset, the defaults are returned unchanged so
// the tool works with no config file at all.
func Load() (*Config, error) {
	path := os.Getenv("RECEPTOR_PROVISION_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates a config file, applying defaults for
// fields the file leaves unset.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks that required fields are present and paths are
// absolute.
func (c *Config) Validate() error {
	if c.VersionSpec == "" {
		return fmt.Errorf("version_spec is required")
	}
	if c.ServiceUser == "" {
		return fmt.Errorf("service_user is required")
	}
	if !strings.HasPrefix(c.ConfigDir, "/") {
		return fmt.Errorf("config_dir must be absolute, got %q", c.ConfigDir)
	}
	if !strings.HasPrefix(c.DataDir, "/") {
		return fmt.Errorf("data_dir must be absolute, got %q", c.DataDir)
	}
	return nil
}

// ResolveNodeID returns the effective node identity: the configured
// NodeID when set, the hostname otherwise.
func (c *Config) ResolveNodeID() (string, error) {
	if c.NodeID != "" {
		return c.NodeID, nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("determining node ID from hostname: %w", err)
	}
	return hostname, nil
}
