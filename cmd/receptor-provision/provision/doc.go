// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package provision implements the receptor-provision subcommands.
//
// The core type is [Plan]: the resolved configuration, node identity,
// and host backends, from which [Plan.Steps] derives the convergence
// sequence run by apply and status. Commands share one parameter
// struct; status forces check mode, render short-circuits to the pure
// config composition.
package provision
