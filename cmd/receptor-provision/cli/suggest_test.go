// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "testing"

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"apply", "apply", 0},
		{"aply", "apply", 1},
		{"staus", "status", 1},
		{"rendr", "render", 1},
		{"kitten", "sitting", 3},
		{"", "apply", 5},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "apply"},
		{Name: "status"},
		{Name: "render"},
	}

	if got := suggestCommand("aply", commands); got != "apply" {
		t.Errorf("suggestCommand(aply) = %q, want apply", got)
	}
	if got := suggestCommand("zzzzzzzzzz", commands); got != "" {
		t.Errorf("suggestCommand(far-off input) = %q, want no suggestion", got)
	}
}
