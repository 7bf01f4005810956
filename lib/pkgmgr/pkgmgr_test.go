// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package pkgmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/project-receptor/provision/lib/run"
)

func TestNeedsGit(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{"receptor", false},
		{"receptor==1.0.1", false},
		{"git+https://github.com/project-receptor/receptor@devel", true},
		{"git+ssh://git@github.com/project-receptor/receptor", true},
	}
	for _, test := range tests {
		if got := NeedsGit(test.spec); got != test.want {
			t.Errorf("NeedsGit(%q) = %v, want %v", test.spec, got, test.want)
		}
	}
}

func TestRuntimePackages(t *testing.T) {
	packages := RuntimePackages("receptor")
	if len(packages) != 2 || packages[0] != "python3" || packages[1] != "python3-pip" {
		t.Errorf("RuntimePackages(receptor) = %v", packages)
	}

	packages = RuntimePackages("git+https://example.com/receptor")
	if len(packages) != 3 || packages[2] != "git" {
		t.Errorf("git spec should append git, got %v", packages)
	}
}

func TestAptInstalled(t *testing.T) {
	fake := &run.Fake{Outputs: map[string]string{
		"dpkg-query -W -f=${Status} python3": "install ok installed",
	}}
	apt := &Apt{Runner: fake}

	installed, err := apt.Installed(context.Background(), "python3")
	if err != nil {
		t.Fatalf("Installed() error: %v", err)
	}
	if !installed {
		t.Error("python3 should report installed")
	}

	// dpkg-query failure means not installed, not an error.
	fake = &run.Fake{Errors: map[string]error{
		"dpkg-query": errors.New("no packages found matching git"),
	}}
	apt = &Apt{Runner: fake}
	installed, err = apt.Installed(context.Background(), "git")
	if err != nil {
		t.Fatalf("Installed() should swallow query failures, got: %v", err)
	}
	if installed {
		t.Error("unknown package should report not installed")
	}
}

func TestAptInstall(t *testing.T) {
	fake := &run.Fake{}
	apt := &Apt{Runner: fake}

	if err := apt.Install(context.Background(), "python3", "git"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if !fake.Ran("apt-get install -y python3 git") {
		t.Errorf("unexpected commands: %v", fake.Commands)
	}
}

func TestDnfInstalled(t *testing.T) {
	fake := &run.Fake{Outputs: map[string]string{
		"rpm -q python3": "python3-3.11.4-1.el9.x86_64",
	}}
	dnf := NewDnf(fake, "dnf")

	installed, err := dnf.Installed(context.Background(), "python3")
	if err != nil {
		t.Fatalf("Installed() error: %v", err)
	}
	if !installed {
		t.Error("python3 should report installed")
	}

	fake = &run.Fake{Errors: map[string]error{
		"rpm -q git": errors.New("package git is not installed"),
	}}
	dnf = NewDnf(fake, "dnf")
	installed, _ = dnf.Installed(context.Background(), "git")
	if installed {
		t.Error("missing rpm should report not installed")
	}
}

func TestDnfInstallUsesConfiguredExecutable(t *testing.T) {
	fake := &run.Fake{}
	yum := NewDnf(fake, "yum")

	if err := yum.Install(context.Background(), "git"); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if !fake.Ran("yum install -y git") {
		t.Errorf("unexpected commands: %v", fake.Commands)
	}
}

func TestMissing(t *testing.T) {
	fake := &run.Fake{Outputs: map[string]string{
		"dpkg-query -W -f=${Status} python3": "install ok installed",
	}, Errors: map[string]error{
		"dpkg-query -W -f=${Status} python3-pip": errors.New("not found"),
		"dpkg-query -W -f=${Status} git":         errors.New("not found"),
	}}
	apt := &Apt{Runner: fake}

	missing, err := Missing(context.Background(), apt, []string{"python3", "python3-pip", "git"})
	if err != nil {
		t.Fatalf("Missing() error: %v", err)
	}
	if len(missing) != 2 || missing[0] != "python3-pip" || missing[1] != "git" {
		t.Errorf("Missing() = %v, want [python3-pip git]", missing)
	}
}

func TestPipForceReinstall(t *testing.T) {
	fake := &run.Fake{}
	pip := NewPip(fake)

	if err := pip.ForceReinstall(context.Background(), "receptor==1.0.1"); err != nil {
		t.Fatalf("ForceReinstall() error: %v", err)
	}
	if !fake.Ran("pip3 install --force-reinstall receptor==1.0.1") {
		t.Errorf("unexpected commands: %v", fake.Commands)
	}

	// Every call reapplies; there is no installed-state short circuit.
	if err := pip.ForceReinstall(context.Background(), "receptor==1.0.1"); err != nil {
		t.Fatalf("second ForceReinstall() error: %v", err)
	}
	if fake.Count("pip3 install") != 2 {
		t.Errorf("expected 2 pip invocations, got %d", fake.Count("pip3 install"))
	}
}

func TestPipSurfacesInstallerError(t *testing.T) {
	fake := &run.Fake{Errors: map[string]error{
		"pip3": errors.New("No matching distribution found"),
	}}
	pip := NewPip(fake)

	if err := pip.ForceReinstall(context.Background(), "receptor==999"); err == nil {
		t.Fatal("expected pip failure to propagate")
	}
}

func TestPipCommandHint(t *testing.T) {
	pip := NewPip(&run.Fake{})
	want := "pip3 install --force-reinstall receptor"
	if got := pip.Command("receptor"); got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}

func TestInstallCommandHints(t *testing.T) {
	apt := &Apt{Runner: &run.Fake{}}
	if got, want := apt.InstallCommand("python3", "git"), "apt-get install -y python3 git"; got != want {
		t.Errorf("apt InstallCommand() = %q, want %q", got, want)
	}

	yum := NewDnf(&run.Fake{}, "yum")
	if got, want := yum.InstallCommand("python3"), "yum install -y python3"; got != want {
		t.Errorf("yum InstallCommand() = %q, want %q", got, want)
	}
}
