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
	"github.com/project-receptor/provision/lib/nodeconf"
)

// RenderCommand prints the composed per-node config to stdout without
// touching the filesystem.
func RenderCommand() *cli.Command {
	var params applyParams
	return &cli.Command{
		Name:    "render",
		Summary: "print the per-node config this host would receive",
		Description: `Render composes the node configuration (template plus managed peer
block) exactly as apply would write it, and prints it to stdout. When
the config file already exists on disk, its current content seeds the
render so a preserved peer block shows up in the output.`,
		Usage: "receptor-provision render [flags]",
		Examples: []cli.Example{
			{Description: "preview the config for this host", Command: "receptor-provision render"},
			{Description: "preview another node's config", Command: "receptor-provision render --node-id node-b --peers host-a:8889"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := cli.FlagsFromParams("render", &params)
			flagSet.MarkHidden("check")
			flagSet.MarkHidden("no-restart")
			flagSet.MarkHidden("json")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("render takes no positional arguments, got %q", args)
			}

			plan, err := buildPlan(&params)
			if err != nil {
				return err
			}

			path := nodeconf.Path(plan.Config.ConfigDir, plan.NodeID)
			current, err := nodeconf.ReadCurrent(path)
			if err != nil {
				return err
			}

			renderParams := nodeconf.Params{NodeID: plan.NodeID, DataDir: plan.Config.DataDir}
			desired, err := nodeconf.Desired(renderParams, plan.Peers, current)
			if err != nil {
				return err
			}

			fmt.Fprint(os.Stdout, desired)
			return nil
		},
	}
}
