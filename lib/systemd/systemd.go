// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package systemd manages the receptor service through systemctl: unit
// file installation with content comparison, daemon-reload, and the
// enable/start/restart lifecycle of per-node instances.
//
// All systemctl and file state is reached through a Manager so tests
// can point it at a fake runner and a temporary unit directory.
package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/project-receptor/provision/lib/run"
)

// UnitDir is where system-wide unit files are installed.
const UnitDir = "/etc/systemd/system"

// UnitTemplate is the template unit file name; instances are derived
// from it by inserting the node ID after the "@".
const UnitTemplate = "receptor@.service"

// Instance returns the service instance name for a node, e.g.
// "receptor@node1".
func Instance(nodeID string) string {
	return "receptor@" + nodeID
}

// Manager drives systemctl and the unit directory.
type Manager struct {
	runner  run.Runner
	unitDir string
}

// NewManager returns a Manager for the system unit directory.
func NewManager(runner run.Runner) *Manager {
	return &Manager{runner: runner, unitDir: UnitDir}
}

// NewManagerAt returns a Manager installing units under dir, for
// tests.
func NewManagerAt(runner run.Runner, dir string) *Manager {
	return &Manager{runner: runner, unitDir: dir}
}

// UnitPath returns the install path of a unit file.
func (m *Manager) UnitPath(name string) string {
	return filepath.Join(m.unitDir, name)
}

// UnitCurrent reports whether the installed unit file exists with
// exactly the expected content.
func (m *Manager) UnitCurrent(name, content string) (bool, error) {
	installed, err := os.ReadFile(m.UnitPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", m.UnitPath(name), err)
	}
	return string(installed) == content, nil
}

// InstallUnit writes the unit file, overwriting any existing content.
func (m *Manager) InstallUnit(name, content string) error {
	if err := os.WriteFile(m.UnitPath(name), []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", m.UnitPath(name), err)
	}
	return nil
}

// DaemonReload reloads systemd's unit registry so new or changed unit
// files take effect. Safe to call when nothing changed.
func (m *Manager) DaemonReload(ctx context.Context) error {
	return m.runner.Run(ctx, "systemctl", "daemon-reload")
}

// IsActive reports whether a unit is running. "activating" counts as
// running: start returns before the service finishes initializing.
func (m *Manager) IsActive(ctx context.Context, unit string) bool {
	status, err := m.runner.Output(ctx, "systemctl", "is-active", unit)
	if err != nil {
		return false
	}
	return status == "active" || status == "activating"
}

// IsEnabled reports whether a unit starts at boot.
func (m *Manager) IsEnabled(ctx context.Context, unit string) bool {
	status, err := m.runner.Output(ctx, "systemctl", "is-enabled", unit)
	if err != nil {
		return false
	}
	return status == "enabled"
}

// Enable marks a unit for automatic start at boot.
func (m *Manager) Enable(ctx context.Context, unit string) error {
	return m.runner.Run(ctx, "systemctl", "enable", unit)
}

// Start starts a unit now.
func (m *Manager) Start(ctx context.Context, unit string) error {
	return m.runner.Run(ctx, "systemctl", "start", unit)
}

// Restart restarts a unit so it picks up changed configuration.
func (m *Manager) Restart(ctx context.Context, unit string) error {
	return m.runner.Run(ctx, "systemctl", "restart", unit)
}
