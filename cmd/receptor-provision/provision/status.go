// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/project-receptor/provision/cmd/receptor-provision/cli"
)

// StatusCommand reports convergence state without touching the host.
// It is apply's check mode under a name that reads naturally in cron
// and monitoring scripts.
func StatusCommand() *cli.Command {
	var params applyParams
	return &cli.Command{
		Name:    "status",
		Summary: "report this host's convergence state",
		Description: `Status probes every provisioning step and reports whether the host
matches the desired state. Nothing is mutated. Exits non-zero when
changes are pending, so it can gate monitoring and CI checks.`,
		Usage: "receptor-provision status [flags]",
		Examples: []cli.Example{
			{Description: "human-readable report", Command: "receptor-provision status"},
			{Description: "machine-readable report", Command: "receptor-provision status --json"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.FlagsFromParams("status", &params)
			// Check mode is implied; apply-only switches stay hidden.
			flagSet.MarkHidden("check")
			flagSet.MarkHidden("no-restart")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("status takes no positional arguments, got %q", args)
			}
			return runConverge(ctx, &params, true, logger)
		},
	}
}
