// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/project-receptor/provision/cmd/receptor-provision/cli"
	"github.com/project-receptor/provision/cmd/receptor-provision/provision"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like status) return an
		// ExitError with the desired exit code. Don't print a redundant
		// "error:" line for those unless they carry a message.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			if message := err.Error(); message != "" {
				fmt.Fprintf(os.Stderr, "error: %s\n", message)
			}
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root().Execute(ctx, os.Args[1:])
}

func root() *cli.Command {
	return &cli.Command{
		Name:    "receptor-provision",
		Summary: "provision a host to run a receptor mesh node",
		Description: `receptor-provision converges a single host to run a receptor node:
it installs the receptor Python package, creates the service user and
directories, renders the per-node configuration with a managed peer
block, and installs, enables, and starts the systemd service
instance. Run it once per host, under an orchestrator or by hand.`,
		Subcommands: []*cli.Command{
			provision.ApplyCommand(),
			provision.StatusCommand(),
			provision.RenderCommand(),
		},
	}
}
