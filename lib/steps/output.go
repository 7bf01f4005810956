// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"fmt"
	"io"
	"strings"
)

// JSONReport is the machine-readable form of a run, emitted by the
// commands' --json mode.
type JSONReport struct {
	Steps            []Result `json:"steps"                       desc:"per-step outcomes in execution order"`
	Converged        bool     `json:"converged"                   desc:"true if the host matches the desired state"`
	CheckMode        bool     `json:"check_mode"                  desc:"true if no mutations were attempted"`
	Changed          int      `json:"changed"                     desc:"number of steps that mutated the host"`
	ElevatedSkipped  int      `json:"elevated_skipped,omitempty"  desc:"pending changes that need root"`
	PermissionDenied bool     `json:"permission_denied,omitempty" desc:"a mutation failed with EPERM/EACCES"`
}

// BuildJSON assembles the JSON report from a run.
func BuildJSON(results []Result, checkMode bool, outcome Outcome) JSONReport {
	return JSONReport{
		Steps:            results,
		Converged:        outcome.Converged(),
		CheckMode:        checkMode,
		Changed:          outcome.Changed,
		ElevatedSkipped:  outcome.ElevatedSkipped,
		PermissionDenied: outcome.PermissionDenied,
	}
}

// PrintChecklist writes the human-readable run report to w: one line
// per step, then a summary. Pending elevated changes are grouped at
// the bottom with re-run-with-sudo guidance.
func PrintChecklist(w io.Writer, results []Result, checkMode bool, outcome Outcome, sudoHint string) {
	var elevatedHints []string

	for _, result := range results {
		fmt.Fprintf(w, "[%-7s]  %-34s  %s\n", strings.ToUpper(string(result.Status)), result.Name, result.Message)

		if result.Status == StatusPending && result.Hint != "" {
			note := ""
			if result.Elevated {
				note = " (requires sudo)"
			}
			fmt.Fprintf(w, "           %-34s  would run: %s%s\n", "", result.Hint, note)
			if result.Elevated && !checkMode {
				elevatedHints = append(elevatedHints, result.Hint)
			}
		}
	}

	fmt.Fprintln(w)

	switch {
	case outcome.Failed > 0:
		fmt.Fprintf(w, "%d step(s) failed.\n", outcome.Failed)
	case checkMode && outcome.Pending > 0:
		fmt.Fprintf(w, "%d change(s) pending. Run apply to converge.\n", outcome.Pending)
	case outcome.Changed > 0:
		fmt.Fprintf(w, "%d change(s) applied.\n", outcome.Changed)
	case outcome.Converged():
		fmt.Fprintln(w, "Host converged, no changes needed.")
	}

	if outcome.PermissionDenied {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Some changes failed due to insufficient permissions.")
	}

	if len(elevatedHints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d change(s) require root privileges:\n", len(elevatedHints))
		for _, hint := range elevatedHints {
			fmt.Fprintf(w, "  - %s\n", hint)
		}
		if sudoHint != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Re-run with sudo to apply:")
			fmt.Fprintf(w, "  sudo %s\n", sudoHint)
		}
	}
}
