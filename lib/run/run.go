// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package run executes external commands for the provisioning steps.
//
// Every package that shells out (package managers, useradd, systemctl)
// does so through the [Runner] interface so tests can substitute
// [Fake] and assert on the exact command lines without touching the
// host. [System] is the real implementation.
package run

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands.
type Runner interface {
	// Run executes a command, discarding output on success. On failure
	// the returned error includes the command line and its combined
	// output.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// System returns a Runner backed by os/exec.
func System() Runner {
	return systemRunner{}
}

type systemRunner struct{}

func (systemRunner) Run(ctx context.Context, name string, args ...string) error {
	command := exec.CommandContext(ctx, name, args...)
	output, err := command.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (systemRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	command := exec.CommandContext(ctx, name, args...)
	output, err := command.Output()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}
