// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package run

import (
	"context"
	"fmt"
	"strings"
)

// Fake is a Runner for tests. It records every executed command line
// and answers from canned responses keyed by command prefix. Commands
// without a canned response succeed with empty output, so tests only
// declare the cases they care about.
type Fake struct {
	// Commands records each executed command line, in order, as a
	// single space-joined string ("systemctl daemon-reload").
	Commands []string

	// Outputs maps a command-line prefix to the stdout returned by
	// Output. The first matching prefix wins.
	Outputs map[string]string

	// Errors maps a command-line prefix to an error returned by both
	// Run and Output.
	Errors map[string]error
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) error {
	line := commandLine(name, args)
	f.Commands = append(f.Commands, line)
	if err := f.match(f.Errors, line); err != nil {
		return fmt.Errorf("%s: %w", line, err)
	}
	return nil
}

func (f *Fake) Output(ctx context.Context, name string, args ...string) (string, error) {
	line := commandLine(name, args)
	f.Commands = append(f.Commands, line)
	if err := f.match(f.Errors, line); err != nil {
		return "", fmt.Errorf("%s: %w", line, err)
	}
	for prefix, output := range f.Outputs {
		if strings.HasPrefix(line, prefix) {
			return output, nil
		}
	}
	return "", nil
}

// Ran reports whether any recorded command line starts with prefix.
func (f *Fake) Ran(prefix string) bool {
	for _, line := range f.Commands {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Count returns how many recorded command lines start with prefix.
func (f *Fake) Count(prefix string) int {
	total := 0
	for _, line := range f.Commands {
		if strings.HasPrefix(line, prefix) {
			total++
		}
	}
	return total
}

func (f *Fake) match(table map[string]error, line string) error {
	for prefix, err := range table {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}
	return nil
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
