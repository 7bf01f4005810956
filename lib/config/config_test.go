// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.VersionSpec != "receptor" {
		t.Errorf("expected version_spec=receptor, got %s", cfg.VersionSpec)
	}
	if cfg.ServiceUser != "receptor" {
		t.Errorf("expected service_user=receptor, got %s", cfg.ServiceUser)
	}
	if cfg.ConfigDir != "/etc/receptor" {
		t.Errorf("expected config_dir=/etc/receptor, got %s", cfg.ConfigDir)
	}
	if cfg.DataDir != "/var/lib/receptor" {
		t.Errorf("expected data_dir=/var/lib/receptor, got %s", cfg.DataDir)
	}
	if len(cfg.Peers) != 0 {
		t.Errorf("expected empty peers by default, got %v", cfg.Peers)
	}
}

func TestLoad_NoEnvReturnsDefaults(t *testing.T) {
	origConfig := os.Getenv("RECEPTOR_PROVISION_CONFIG")
	defer os.Setenv("RECEPTOR_PROVISION_CONFIG", origConfig)
	os.Unsetenv("RECEPTOR_PROVISION_CONFIG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() without env should return defaults, got error: %v", err)
	}
	if cfg.VersionSpec != "receptor" {
		t.Errorf("expected default version_spec, got %s", cfg.VersionSpec)
	}
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.yaml")
	content := `
version_spec: "git+https://github.com/project-receptor/receptor@devel"
node_id: relay-1
peers:
  - hub.example.com:8888
  - edge.example.com:8888
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if cfg.VersionSpec != "git+https://github.com/project-receptor/receptor@devel" {
		t.Errorf("version_spec = %s", cfg.VersionSpec)
	}
	if cfg.NodeID != "relay-1" {
		t.Errorf("node_id = %s, want relay-1", cfg.NodeID)
	}
	// Unset fields keep their defaults.
	if cfg.ServiceUser != "receptor" {
		t.Errorf("service_user should default to receptor, got %s", cfg.ServiceUser)
	}
	if cfg.ConfigDir != "/etc/receptor" {
		t.Errorf("config_dir should default to /etc/receptor, got %s", cfg.ConfigDir)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[0] != "hub.example.com:8888" {
		t.Errorf("peers = %v", cfg.Peers)
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFrom_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("version_spec: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"empty version spec", func(c *Config) { c.VersionSpec = "" }, true},
		{"empty service user", func(c *Config) { c.ServiceUser = "" }, true},
		{"relative config dir", func(c *Config) { c.ConfigDir = "etc/receptor" }, true},
		{"relative data dir", func(c *Config) { c.DataDir = "var/lib/receptor" }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestResolveNodeID(t *testing.T) {
	cfg := Default()
	cfg.NodeID = "node1"
	id, err := cfg.ResolveNodeID()
	if err != nil {
		t.Fatalf("ResolveNodeID() error: %v", err)
	}
	if id != "node1" {
		t.Errorf("ResolveNodeID() = %s, want node1", id)
	}

	cfg.NodeID = ""
	id, err = cfg.ResolveNodeID()
	if err != nil {
		t.Fatalf("ResolveNodeID() error: %v", err)
	}
	hostname, _ := os.Hostname()
	if id != hostname {
		t.Errorf("ResolveNodeID() = %s, want hostname %s", id, hostname)
	}
}
