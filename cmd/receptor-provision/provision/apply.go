// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/project-receptor/provision/cmd/receptor-provision/cli"
	"github.com/project-receptor/provision/lib/config"
	"github.com/project-receptor/provision/lib/inventory"
	"github.com/project-receptor/provision/lib/steps"
)

type applyParams struct {
	cli.JSONOutput
	ConfigFile string   `flag:"config" desc:"path to the provisioning config file (YAML)"`
	NodeID     string   `flag:"node-id" desc:"node identifier (default: hostname)"`
	Peers      []string `flag:"peers" desc:"peer addresses, overriding config and inventory"`
	Inventory  string   `flag:"inventory" desc:"path to a JSONC inventory file"`
	Check      bool     `flag:"check" desc:"report pending changes without applying anything"`
	NoRestart  bool     `flag:"no-restart" desc:"do not restart an already-running service after config changes"`
}

// ApplyCommand converges the host: packages, service user, directories,
// config file, and systemd unit.
func ApplyCommand() *cli.Command {
	var params applyParams
	return &cli.Command{
		Name:    "apply",
		Summary: "converge this host to run a receptor node",
		Description: `Apply installs the receptor package, creates the service user and
directories, renders the per-node configuration, installs the systemd
template unit, and enables and starts the service instance.

Steps that mutate the host require root. Without root they are
reported as pending with the shell equivalent of each change.`,
		Usage: "receptor-provision apply [flags]",
		Examples: []cli.Example{
			{Description: "converge using /etc/receptor-provision.yaml", Command: "sudo receptor-provision apply --config /etc/receptor-provision.yaml"},
			{Description: "preview pending changes", Command: "receptor-provision apply --check"},
			{Description: "override the peer list", Command: "sudo receptor-provision apply --peers host-b:8889,host-c:8889"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("apply", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("apply takes no positional arguments, got %q", args)
			}
			return runConverge(ctx, &params, params.Check, logger)
		},
	}
}

// runConverge is the shared body of apply and status: resolve the
// plan, run the sequence, report, and translate the outcome into an
// exit code.
func runConverge(ctx context.Context, params *applyParams, checkMode bool, logger *slog.Logger) error {
	plan, err := buildPlan(params)
	if err != nil {
		return err
	}

	logger.Info("starting run",
		"node", plan.NodeID,
		"peers", len(plan.Peers),
		"check", checkMode,
		"root", steps.IsRoot(),
	)

	results, outcome := steps.Run(ctx, plan.Steps(), checkMode)

	if done, err := params.EmitJSON(steps.BuildJSON(results, checkMode, outcome)); done {
		if err != nil {
			return err
		}
	} else {
		steps.PrintChecklist(os.Stdout, results, checkMode, outcome, SudoHint(params.ConfigFile))
	}

	if !outcome.Converged() {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// buildPlan loads the config, applies flag overrides, and resolves
// node identity and peers.
func buildPlan(params *applyParams) (*Plan, error) {
	var cfg *config.Config
	var err error
	if params.ConfigFile != "" {
		cfg, err = config.LoadFrom(params.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if params.NodeID != "" {
		cfg.NodeID = params.NodeID
	}
	if params.Inventory != "" {
		cfg.Inventory = params.Inventory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nodeID, err := cfg.ResolveNodeID()
	if err != nil {
		return nil, err
	}

	var lookup func(string) ([]string, bool)
	if cfg.Inventory != "" {
		inv, err := inventory.ReadFile(cfg.Inventory)
		if err != nil {
			return nil, fmt.Errorf("inventory: %w", err)
		}
		lookup = inv.Peers
	}
	peers := ResolvePeers(cfg, nodeID, params.Peers, lookup)

	plan := NewPlan(cfg, nodeID, peers)
	plan.NoRestart = params.NoRestart
	return plan, nil
}
