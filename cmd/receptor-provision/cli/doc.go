// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for receptor-provision.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in
// cmd/receptor-provision/main.go and dispatched via [Command.Execute],
// which handles flag parsing, subcommand routing, and structured help
// output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Parameter structs bind to flags through struct tags via [BindFlags]
// and [FlagsFromParams]; embedding [JSONOutput] adds the --json flag and
// the EmitJSON helper. [ExitError] carries a specific process exit code
// out of a Run function, which main translates into the exit status.
package cli
