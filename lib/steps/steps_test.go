// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func convergedStep(name string) Step {
	return Step{
		Name: name,
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{Converged: true, Message: "in desired state"}, nil
		},
	}
}

func divergentStep(name string, applied *bool) Step {
	return Step{
		Name: name,
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{
				Message: "diverges",
				Hint:    "fix " + name,
				Apply: func(ctx context.Context) error {
					*applied = true
					return nil
				},
			}, nil
		},
	}
}

func TestRunConverged(t *testing.T) {
	results, outcome := Run(context.Background(), []Step{
		convergedStep("first"),
		convergedStep("second"),
	}, false)

	if len(results) != 2 {
		t.Fatalf("Run() returned %d results, want 2", len(results))
	}
	for _, result := range results {
		if result.Status != StatusOK {
			t.Errorf("%s: status = %s, want %s", result.Name, result.Status, StatusOK)
		}
	}
	if !outcome.Converged() {
		t.Error("outcome should be converged")
	}
	if outcome.Changed != 0 {
		t.Errorf("Changed = %d, want 0", outcome.Changed)
	}
}

func TestRunAppliesDivergentSteps(t *testing.T) {
	applied := false
	results, outcome := Run(context.Background(), []Step{
		divergentStep("fixable", &applied),
	}, false)

	if !applied {
		t.Error("Apply was not called")
	}
	if results[0].Status != StatusChanged {
		t.Errorf("status = %s, want %s", results[0].Status, StatusChanged)
	}
	if outcome.Changed != 1 {
		t.Errorf("Changed = %d, want 1", outcome.Changed)
	}
	if !outcome.Converged() {
		t.Error("outcome should be converged after a successful apply")
	}
}

func TestRunCheckMode(t *testing.T) {
	applied := false
	results, outcome := Run(context.Background(), []Step{
		divergentStep("fixable", &applied),
	}, true)

	if applied {
		t.Error("check mode must not apply changes")
	}
	if results[0].Status != StatusPending {
		t.Errorf("status = %s, want %s", results[0].Status, StatusPending)
	}
	if results[0].Hint != "fix fixable" {
		t.Errorf("hint = %q, want %q", results[0].Hint, "fix fixable")
	}
	if outcome.Pending != 1 {
		t.Errorf("Pending = %d, want 1", outcome.Pending)
	}
	if outcome.Converged() {
		t.Error("outcome must not be converged with pending changes")
	}
}

func TestRunElevatedWithoutRoot(t *testing.T) {
	if IsRoot() {
		t.Skip("running as root, elevation gating is not observable")
	}

	applied := false
	step := divergentStep("needs-root", &applied)
	step.Elevated = true

	results, outcome := Run(context.Background(), []Step{step}, false)

	if applied {
		t.Error("elevated step must not apply without root")
	}
	if results[0].Status != StatusPending {
		t.Errorf("status = %s, want %s", results[0].Status, StatusPending)
	}
	if outcome.ElevatedSkipped != 1 {
		t.Errorf("ElevatedSkipped = %d, want 1", outcome.ElevatedSkipped)
	}
}

func TestRunCheckError(t *testing.T) {
	results, outcome := Run(context.Background(), []Step{{
		Name: "broken",
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{}, errors.New("cannot stat")
		},
	}}, false)

	if results[0].Status != StatusFailed {
		t.Errorf("status = %s, want %s", results[0].Status, StatusFailed)
	}
	if outcome.Failed != 1 {
		t.Errorf("Failed = %d, want 1", outcome.Failed)
	}
}

func TestRunApplyError(t *testing.T) {
	results, outcome := Run(context.Background(), []Step{{
		Name: "failing-apply",
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{
				Message: "diverges",
				Apply:   func(ctx context.Context) error { return errors.New("boom") },
			}, nil
		},
	}}, false)

	if results[0].Status != StatusFailed {
		t.Errorf("status = %s, want %s", results[0].Status, StatusFailed)
	}
	if !strings.Contains(results[0].Message, "boom") {
		t.Errorf("message should carry the apply error, got %q", results[0].Message)
	}
	if outcome.Failed != 1 {
		t.Errorf("Failed = %d, want 1", outcome.Failed)
	}
}

func TestRunPermissionDenied(t *testing.T) {
	_, outcome := Run(context.Background(), []Step{{
		Name: "denied",
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{
				Message: "diverges",
				Apply: func(ctx context.Context) error {
					return fmt.Errorf("chown: %w", syscall.EPERM)
				},
			}, nil
		},
	}}, false)

	if !outcome.PermissionDenied {
		t.Error("EPERM from Apply should set PermissionDenied")
	}
}

func TestRunSkip(t *testing.T) {
	results, outcome := Run(context.Background(), []Step{{
		Name: "dependent",
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{Skip: true, Message: "skipped: user does not exist"}, nil
		},
	}}, false)

	if results[0].Status != StatusSkipped {
		t.Errorf("status = %s, want %s", results[0].Status, StatusSkipped)
	}
	if !outcome.Converged() {
		t.Error("skips alone should not block convergence")
	}
}

func TestRunOrderAndVisibility(t *testing.T) {
	// Later probes must observe earlier mutations: the second step's
	// probe reads state the first step's apply wrote.
	state := "absent"
	results, _ := Run(context.Background(), []Step{
		{
			Name: "writer",
			Check: func(ctx context.Context) (Probe, error) {
				return Probe{
					Message: "absent",
					Apply: func(ctx context.Context) error {
						state = "present"
						return nil
					},
				}, nil
			},
		},
		{
			Name: "reader",
			Check: func(ctx context.Context) (Probe, error) {
				return Probe{Converged: state == "present", Message: state}, nil
			},
		},
	}, false)

	if results[1].Status != StatusOK {
		t.Errorf("reader should observe the writer's mutation, got %s (%s)",
			results[1].Status, results[1].Message)
	}
}

func TestRunForcedStepAlwaysChanges(t *testing.T) {
	// A step whose probe never reports converged reapplies every run
	// (the force-reinstall pattern).
	runs := 0
	forced := Step{
		Name: "force-reinstall",
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{
				Message: "reapplied every run",
				Hint:    "pip3 install --force-reinstall receptor",
				Apply: func(ctx context.Context) error {
					runs++
					return nil
				},
			}, nil
		},
	}

	for i := 0; i < 2; i++ {
		results, _ := Run(context.Background(), []Step{forced}, false)
		if results[0].Status != StatusChanged {
			t.Fatalf("forced step status = %s, want %s", results[0].Status, StatusChanged)
		}
	}
	if runs != 2 {
		t.Errorf("forced step applied %d times, want 2", runs)
	}
}

func TestBuildJSON(t *testing.T) {
	results := []Result{
		{Name: "a", Status: StatusOK},
		{Name: "b", Status: StatusPending, Elevated: true},
	}
	outcome := Outcome{Pending: 1, ElevatedSkipped: 1}

	report := BuildJSON(results, false, outcome)
	if report.Converged {
		t.Error("report should not be converged with pending steps")
	}
	if report.ElevatedSkipped != 1 {
		t.Errorf("ElevatedSkipped = %d, want 1", report.ElevatedSkipped)
	}
	if len(report.Steps) != 2 {
		t.Errorf("Steps = %d, want 2", len(report.Steps))
	}
}

func TestPrintChecklistSudoGuidance(t *testing.T) {
	if IsRoot() {
		t.Skip("running as root, elevation gating is not observable")
	}

	step := Step{
		Name:     "needs-root",
		Elevated: true,
		Check: func(ctx context.Context) (Probe, error) {
			return Probe{
				Message: "diverges",
				Hint:    "useradd --system receptor",
				Apply:   func(ctx context.Context) error { return nil },
			}, nil
		},
	}
	results, outcome := Run(context.Background(), []Step{step}, false)

	var buf strings.Builder
	PrintChecklist(&buf, results, false, outcome, "receptor-provision apply")

	output := buf.String()
	if !strings.Contains(output, "useradd --system receptor") {
		t.Errorf("checklist missing elevated hint:\n%s", output)
	}
	if !strings.Contains(output, "sudo receptor-provision apply") {
		t.Errorf("checklist missing sudo guidance:\n%s", output)
	}
}
