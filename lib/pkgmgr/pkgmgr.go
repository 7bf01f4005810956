// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package pkgmgr wraps the host's package managers for the
// provisioning steps: the OS package manager (apt-get or dnf,
// auto-detected) for the Python runtime and tooling, and pip for the
// receptor package itself.
//
// OS package installation is convergent: the package database is
// queried first and install runs only for missing packages. The pip
// install is deliberately not — it runs in force-reinstall mode every
// time so the exact requested version spec is in effect even when a
// different version was previously installed.
package pkgmgr

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/project-receptor/provision/lib/run"
)

// gitMarker in a pip version spec ("git+https://...") means pip will
// shell out to git, so git must be installed first.
const gitMarker = "git+"

// NeedsGit reports whether installing spec requires the git tool.
func NeedsGit(spec string) bool {
	return strings.Contains(spec, gitMarker)
}

// RuntimePackages returns the OS packages the receptor install needs:
// the Python runtime and pip, plus git when the version spec pulls
// from a git source. Package names are identical on Debian and Red Hat
// family distributions.
func RuntimePackages(spec string) []string {
	packages := []string{"python3", "python3-pip"}
	if NeedsGit(spec) {
		packages = append(packages, "git")
	}
	return packages
}

// System is an OS package manager backend.
type System interface {
	// Name identifies the backend ("apt", "dnf") in step messages.
	Name() string

	// Installed reports whether a package is present.
	Installed(ctx context.Context, pkg string) (bool, error)

	// Install installs packages non-interactively. The underlying
	// tool's error (unknown package, network failure) is surfaced
	// as-is; there is no retry.
	Install(ctx context.Context, packages ...string) error

	// InstallCommand returns the shell equivalent of Install, for
	// step hints.
	InstallCommand(packages ...string) string
}

// Detect picks the backend for this host by probing PATH for apt-get,
// then dnf, then yum.
func Detect(runner run.Runner) (System, error) {
	if _, err := exec.LookPath("apt-get"); err == nil {
		return &Apt{Runner: runner}, nil
	}
	if _, err := exec.LookPath("dnf"); err == nil {
		return &Dnf{Runner: runner, executable: "dnf"}, nil
	}
	if _, err := exec.LookPath("yum"); err == nil {
		return &Dnf{Runner: runner, executable: "yum"}, nil
	}
	return nil, fmt.Errorf("no supported package manager found (need apt-get, dnf, or yum)")
}

// Apt is the Debian-family backend.
type Apt struct {
	Runner run.Runner
}

func (a *Apt) Name() string { return "apt" }

func (a *Apt) Installed(ctx context.Context, pkg string) (bool, error) {
	// dpkg-query exits non-zero for unknown packages; that means "not
	// installed", not a failure.
	status, err := a.Runner.Output(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	if err != nil {
		return false, nil
	}
	return strings.Contains(status, "install ok installed"), nil
}

func (a *Apt) Install(ctx context.Context, packages ...string) error {
	args := append([]string{"install", "-y"}, packages...)
	return a.Runner.Run(ctx, "apt-get", args...)
}

func (a *Apt) InstallCommand(packages ...string) string {
	return "apt-get install -y " + strings.Join(packages, " ")
}

// Dnf is the Red Hat-family backend, covering both dnf and its yum
// predecessor.
type Dnf struct {
	Runner     run.Runner
	executable string
}

// NewDnf returns a Dnf backend using the given executable ("dnf" or
// "yum").
func NewDnf(runner run.Runner, executable string) *Dnf {
	return &Dnf{Runner: runner, executable: executable}
}

func (d *Dnf) Name() string { return d.executable }

func (d *Dnf) Installed(ctx context.Context, pkg string) (bool, error) {
	// rpm -q exits non-zero when the package is not installed.
	if _, err := d.Runner.Output(ctx, "rpm", "-q", pkg); err != nil {
		return false, nil
	}
	return true, nil
}

func (d *Dnf) Install(ctx context.Context, packages ...string) error {
	args := append([]string{"install", "-y"}, packages...)
	return d.Runner.Run(ctx, d.executable, args...)
}

func (d *Dnf) InstallCommand(packages ...string) string {
	return d.executable + " install -y " + strings.Join(packages, " ")
}

// Missing returns the subset of packages not yet installed, preserving
// order.
func Missing(ctx context.Context, system System, packages []string) ([]string, error) {
	var missing []string
	for _, pkg := range packages {
		installed, err := system.Installed(ctx, pkg)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", pkg, err)
		}
		if !installed {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

// Pip installs Python packages via the pip executable.
type Pip struct {
	Runner run.Runner

	// Executable is the pip binary, pip3 by default.
	Executable string
}

// NewPip returns a Pip using the pip3 executable.
func NewPip(runner run.Runner) *Pip {
	return &Pip{Runner: runner, Executable: "pip3"}
}

// ForceReinstall installs spec with --force-reinstall, reapplying even
// when some version is already present.
func (p *Pip) ForceReinstall(ctx context.Context, spec string) error {
	return p.Runner.Run(ctx, p.Executable, "install", "--force-reinstall", spec)
}

// Command returns the shell equivalent of ForceReinstall, for step
// hints.
func (p *Pip) Command(spec string) string {
	return fmt.Sprintf("%s install --force-reinstall %s", p.Executable, spec)
}
