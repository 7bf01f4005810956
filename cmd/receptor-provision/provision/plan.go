// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/project-receptor/provision/lib/config"
	"github.com/project-receptor/provision/lib/content"
	"github.com/project-receptor/provision/lib/nodeconf"
	"github.com/project-receptor/provision/lib/pkgmgr"
	"github.com/project-receptor/provision/lib/run"
	"github.com/project-receptor/provision/lib/steps"
	"github.com/project-receptor/provision/lib/systemd"
	"github.com/project-receptor/provision/lib/sysuser"
)

// Plan holds everything needed to converge one host: the resolved
// configuration, the node identity, and the host-facing backends. The
// backend fields default to the real system implementations and are
// replaceable in tests.
type Plan struct {
	Config *config.Config

	// NodeID namespaces the config file and the service instance.
	NodeID string

	// Peers is the resolved peer list for this node (config, inventory,
	// or flag override).
	Peers []string

	// NoRestart suppresses the restart of an already-running service
	// after a config or unit change.
	NoRestart bool

	Runner  run.Runner
	System  pkgmgr.System // nil means detect from PATH on first use
	Pip     *pkgmgr.Pip
	Systemd *systemd.Manager

	// Divergence observed during the run, feeding the final restart
	// decision.
	configDiverged bool
	unitDiverged   bool
	wasActive      bool
}

// NewPlan builds a plan against the real host: system command runner,
// detected package manager, pip3, and /etc/systemd/system.
func NewPlan(cfg *config.Config, nodeID string, peers []string) *Plan {
	runner := run.System()
	return &Plan{
		Config:  cfg,
		NodeID:  nodeID,
		Peers:   peers,
		Runner:  runner,
		Pip:     pkgmgr.NewPip(runner),
		Systemd: systemd.NewManager(runner),
	}
}

// Steps returns the convergence sequence. Each step's Check runs only
// after all earlier steps have been applied, so later probes observe
// earlier mutations (the directory check sees the user the previous
// step created).
func (p *Plan) Steps() []steps.Step {
	owner := p.Config.ServiceUser + ":" + p.Config.ServiceUser
	unit := systemd.Instance(p.NodeID)
	configPath := nodeconf.Path(p.Config.ConfigDir, p.NodeID)

	sequence := []steps.Step{
		p.osPackagesStep(),
		p.pipStep(),
		p.serviceUserStep(),
		p.directoryStep("config dir", sysuser.DirSpec{Path: p.Config.ConfigDir, Owner: owner, Mode: 0o770}),
		p.directoryStep("data dir", sysuser.DirSpec{Path: p.Config.DataDir, Owner: owner, Mode: 0o770}),
		p.configFileStep(configPath, owner),
		p.unitStep(),
		p.daemonReloadStep(),
		p.enableStep(unit),
		p.startStep(unit),
		p.restartStep(unit),
	}
	return sequence
}

// system returns the package manager backend, detecting it on first
// use.
func (p *Plan) system() (pkgmgr.System, error) {
	if p.System == nil {
		detected, err := pkgmgr.Detect(p.Runner)
		if err != nil {
			return nil, err
		}
		p.System = detected
	}
	return p.System, nil
}

// osPackagesStep ensures the Python runtime (and git for VCS installs)
// is present. Unlike the pip step this one is idempotent: packages
// already installed are left alone.
func (p *Plan) osPackagesStep() steps.Step {
	return steps.Step{
		Name:     "os packages",
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			system, err := p.system()
			if err != nil {
				return steps.Probe{}, err
			}
			wanted := pkgmgr.RuntimePackages(p.Config.VersionSpec)
			missing, err := pkgmgr.Missing(ctx, system, wanted)
			if err != nil {
				return steps.Probe{}, err
			}
			if len(missing) == 0 {
				return steps.Probe{
					Converged: true,
					Message:   strings.Join(wanted, ", ") + " present",
				}, nil
			}
			return steps.Probe{
				Message: "missing: " + strings.Join(missing, ", "),
				Hint:    system.InstallCommand(missing...),
				Apply: func(ctx context.Context) error {
					return system.Install(ctx, missing...)
				},
			}, nil
		},
	}
}

// pipStep reinstalls the receptor package on every run. Force
// reinstall tracks moving targets like a git branch, so this step is
// deliberately never converged.
func (p *Plan) pipStep() steps.Step {
	spec := p.Config.VersionSpec
	return steps.Step{
		Name:     "receptor (pip)",
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			return steps.Probe{
				Message: "force reinstall " + spec,
				Hint:    p.Pip.Command(spec),
				Apply: func(ctx context.Context) error {
					return p.Pip.ForceReinstall(ctx, spec)
				},
			}, nil
		},
	}
}

func (p *Plan) serviceUserStep() steps.Step {
	name := p.Config.ServiceUser
	return steps.Step{
		Name:     "service user " + name,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			if sysuser.Exists(name) {
				return steps.Probe{Converged: true, Message: "exists"}, nil
			}
			return steps.Probe{
				Message: "does not exist",
				Hint:    sysuser.CreateCommand(name),
				Apply: func(ctx context.Context) error {
					return sysuser.Create(ctx, p.Runner, name)
				},
			}, nil
		},
	}
}

func (p *Plan) directoryStep(label string, spec sysuser.DirSpec) steps.Step {
	return steps.Step{
		Name:     label + " " + spec.Path,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			// Ownership cannot be verified before the owning user
			// exists (pending user step without root).
			if _, _, err := sysuser.ResolveOwner(spec.Owner); err != nil {
				return steps.Probe{Skip: true, Message: err.Error()}, nil
			}
			state, err := sysuser.CheckDir(spec)
			if err != nil {
				return steps.Probe{}, err
			}
			if state.Converged() {
				return steps.Probe{Converged: true, Message: state.Detail}, nil
			}
			return steps.Probe{
				Message: state.Detail,
				Hint:    sysuser.ApplyDirCommand(spec),
				Apply: func(ctx context.Context) error {
					return sysuser.ApplyDir(spec)
				},
			}, nil
		},
	}
}

func (p *Plan) configFileStep(path, owner string) steps.Step {
	return steps.Step{
		Name:     "config " + path,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			current, err := nodeconf.ReadCurrent(path)
			if err != nil {
				return steps.Probe{}, err
			}
			params := nodeconf.Params{NodeID: p.NodeID, DataDir: p.Config.DataDir}
			desired, err := nodeconf.Desired(params, p.Peers, current)
			if err != nil {
				return steps.Probe{}, err
			}
			if current == desired {
				return steps.Probe{Converged: true, Message: "up to date"}, nil
			}
			p.configDiverged = true
			message := "content differs"
			if current == "" {
				message = "missing"
			}
			return steps.Probe{
				Message: message,
				Hint:    "write " + path,
				Apply: func(ctx context.Context) error {
					_, err := nodeconf.EnsureFile(path, desired, owner, 0o644)
					return err
				},
			}, nil
		},
	}
}

func (p *Plan) unitStep() steps.Step {
	return steps.Step{
		Name:     "unit " + systemd.UnitTemplate,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			desired := content.ServiceUnit()
			current, err := p.Systemd.UnitCurrent(systemd.UnitTemplate, desired)
			if err != nil {
				return steps.Probe{}, err
			}
			if current {
				return steps.Probe{Converged: true, Message: "installed"}, nil
			}
			p.unitDiverged = true
			return steps.Probe{
				Message: "missing or stale",
				Hint:    "write " + p.Systemd.UnitPath(systemd.UnitTemplate),
				Apply: func(ctx context.Context) error {
					return p.Systemd.InstallUnit(systemd.UnitTemplate, desired)
				},
			}, nil
		},
	}
}

// daemonReloadStep reloads systemd unconditionally so the manager sees
// the template unit regardless of how it got on disk.
func (p *Plan) daemonReloadStep() steps.Step {
	return steps.Step{
		Name:     "daemon-reload",
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			return steps.Probe{
				Message: "reload unit definitions",
				Hint:    "systemctl daemon-reload",
				Apply: func(ctx context.Context) error {
					return p.Systemd.DaemonReload(ctx)
				},
			}, nil
		},
	}
}

func (p *Plan) enableStep(unit string) steps.Step {
	return steps.Step{
		Name:     "enable " + unit,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			if p.Systemd.IsEnabled(ctx, unit) {
				return steps.Probe{Converged: true, Message: "enabled"}, nil
			}
			return steps.Probe{
				Message: "disabled",
				Hint:    "systemctl enable " + unit,
				Apply: func(ctx context.Context) error {
					return p.Systemd.Enable(ctx, unit)
				},
			}, nil
		},
	}
}

func (p *Plan) startStep(unit string) steps.Step {
	return steps.Step{
		Name:     "start " + unit,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			if p.Systemd.IsActive(ctx, unit) {
				p.wasActive = true
				return steps.Probe{Converged: true, Message: "active"}, nil
			}
			return steps.Probe{
				Message: "not running",
				Hint:    "systemctl start " + unit,
				Apply: func(ctx context.Context) error {
					return p.Systemd.Start(ctx, unit)
				},
			}, nil
		},
	}
}

// restartStep picks up config or unit changes in an already-running
// service. A service started fresh this run already sees the new
// config and is left alone.
func (p *Plan) restartStep(unit string) steps.Step {
	return steps.Step{
		Name:     "restart " + unit,
		Elevated: true,
		Check: func(ctx context.Context) (steps.Probe, error) {
			switch {
			case p.NoRestart:
				return steps.Probe{Converged: true, Message: "suppressed (--no-restart)"}, nil
			case !p.configDiverged && !p.unitDiverged:
				return steps.Probe{Converged: true, Message: "no config change"}, nil
			case !p.wasActive:
				return steps.Probe{Converged: true, Message: "service freshly started"}, nil
			}
			return steps.Probe{
				Message: "config changed while running",
				Hint:    "systemctl restart " + unit,
				Apply: func(ctx context.Context) error {
					return p.Systemd.Restart(ctx, unit)
				},
			}, nil
		},
	}
}

// ResolvePeers determines the peer list for nodeID: an explicit
// override wins, then the inventory entry for the node, then the
// static list from the config file.
func ResolvePeers(cfg *config.Config, nodeID string, override []string, lookup func(string) ([]string, bool)) []string {
	if len(override) > 0 {
		return override
	}
	if lookup != nil {
		if peers, ok := lookup(nodeID); ok {
			return peers
		}
	}
	return cfg.Peers
}

// SudoHint reconstructs the apply invocation for re-run-with-sudo
// guidance.
func SudoHint(configFile string) string {
	if configFile == "" {
		return "receptor-provision apply"
	}
	return fmt.Sprintf("receptor-provision apply --config %s", configFile)
}
