// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package steps runs an ordered sequence of convergence steps against
// the local host. Each step probes current state and, on divergence,
// carries a closure that mutates the host toward the desired state.
//
// Steps execute strictly in order and each probe runs only after every
// earlier step has been applied, so later probes see the effects of
// earlier mutations (the service probe sees the unit file the previous
// step installed). In check mode nothing is applied and divergent
// steps report what would change.
//
// Mutations that need root are marked elevated; without root they are
// skipped and counted so the reporter can suggest re-running with
// sudo.
package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Status is the outcome of a single step.
type Status string

const (
	// StatusOK means the host already matched the desired state.
	StatusOK Status = "ok"
	// StatusChanged means the step mutated the host this run.
	StatusChanged Status = "changed"
	// StatusPending means the step diverges but nothing was applied
	// (check mode, or an elevated mutation without root).
	StatusPending Status = "pending"
	// StatusFailed means the probe or the mutation errored.
	StatusFailed Status = "failed"
	// StatusSkipped means a prerequisite step left this one unprobeable.
	StatusSkipped Status = "skipped"
)

// Action mutates the host toward the desired state.
type Action func(ctx context.Context) error

// Probe is the result of inspecting current state for one step.
type Probe struct {
	// Converged is true when no mutation is needed.
	Converged bool

	// Message describes the observed state ("uid=992", "content
	// differs from expected").
	Message string

	// Hint is the shell equivalent of the pending mutation, shown in
	// check mode and in sudo guidance.
	Hint string

	// Apply performs the mutation. Required when Converged is false.
	Apply Action

	// Skip marks the step unprobeable because a prerequisite diverges
	// (directory ownership cannot be checked before the owning user
	// exists). Message explains why.
	Skip bool
}

// Step is one unit of convergence.
type Step struct {
	// Name identifies the step in reports ("receptor user",
	// "/etc/receptor").
	Name string

	// Elevated marks mutations that need root.
	Elevated bool

	// Check probes current state. It runs after all earlier steps have
	// been applied.
	Check func(ctx context.Context) (Probe, error)
}

// Result is the reported outcome of one step.
type Result struct {
	Name     string `json:"name"               desc:"step name"`
	Status   Status `json:"status"             desc:"step outcome: ok, changed, pending, failed, skipped"`
	Message  string `json:"message"            desc:"observed state or failure detail"`
	Hint     string `json:"hint,omitempty"     desc:"shell equivalent of the pending change"`
	Elevated bool   `json:"elevated,omitempty" desc:"true if the change requires root"`
}

// Outcome aggregates a run.
type Outcome struct {
	// Changed is the number of steps that mutated the host.
	Changed int

	// Pending is the number of divergent steps left unapplied.
	Pending int

	// Failed is the number of steps whose probe or mutation errored.
	Failed int

	// ElevatedSkipped counts pending steps that were not applied
	// because they need root and the process is not running as root.
	ElevatedSkipped int

	// PermissionDenied is true when a mutation failed with EPERM or
	// EACCES despite being attempted.
	PermissionDenied bool
}

// Converged reports whether the host fully matches the desired state
// and every step completed.
func (o Outcome) Converged() bool {
	return o.Pending == 0 && o.Failed == 0
}

// IsRoot returns true if the current process has effective UID 0.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// Run executes the steps in order and returns one Result per step.
// In check mode no mutations happen; divergent steps report
// StatusPending. Elevated mutations are skipped without root and also
// report StatusPending.
func Run(ctx context.Context, sequence []Step, checkMode bool) ([]Result, Outcome) {
	results := make([]Result, 0, len(sequence))
	var outcome Outcome
	root := IsRoot()

	for _, step := range sequence {
		result := Result{Name: step.Name, Elevated: step.Elevated}

		probe, err := step.Check(ctx)
		switch {
		case err != nil:
			result.Status = StatusFailed
			result.Message = err.Error()
			outcome.Failed++

		case probe.Skip:
			result.Status = StatusSkipped
			result.Message = probe.Message

		case probe.Converged:
			result.Status = StatusOK
			result.Message = probe.Message

		default:
			result.Message = probe.Message
			result.Hint = probe.Hint

			switch {
			case checkMode:
				result.Status = StatusPending
				outcome.Pending++

			case step.Elevated && !root:
				result.Status = StatusPending
				outcome.Pending++
				outcome.ElevatedSkipped++

			case probe.Apply == nil:
				result.Status = StatusFailed
				result.Message = fmt.Sprintf("%s (no automatic remedy)", probe.Message)
				outcome.Failed++

			default:
				if applyErr := probe.Apply(ctx); applyErr != nil {
					result.Status = StatusFailed
					result.Message = fmt.Sprintf("%s: %v", probe.Message, applyErr)
					if isPermissionDenied(applyErr) {
						outcome.PermissionDenied = true
					}
					outcome.Failed++
				} else {
					result.Status = StatusChanged
					outcome.Changed++
				}
			}
		}

		results = append(results, result)
	}

	return results, outcome
}

// isPermissionDenied returns true if err wraps EPERM or EACCES.
func isPermissionDenied(err error) bool {
	return errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}
