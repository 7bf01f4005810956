// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseJSONC(t *testing.T) {
	source := `{
	    // the hub listens, it has no outbound peers
	    "hub1":  { "peers": [] },
	    "edge1": { "peers": ["hub1.example.com:8888", "hub2.example.com:8888"] },
	}`

	inv, err := Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	peers, ok := inv.Peers("edge1")
	if !ok {
		t.Fatal("edge1 should be in the inventory")
	}
	if len(peers) != 2 || peers[0] != "hub1.example.com:8888" {
		t.Errorf("edge1 peers = %v", peers)
	}

	peers, ok = inv.Peers("hub1")
	if !ok {
		t.Fatal("hub1 should be in the inventory")
	}
	if len(peers) != 0 {
		t.Errorf("hub1 peers = %v, want empty", peers)
	}

	if _, ok := inv.Peers("absent"); ok {
		t.Error("unknown node should not resolve")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte(`{"hub1": [not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.jsonc")
	if err := os.WriteFile(path, []byte(`{"node1": {"peers": ["a:1"]}}`), 0644); err != nil {
		t.Fatal(err)
	}

	inv, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if peers, _ := inv.Peers("node1"); len(peers) != 1 || peers[0] != "a:1" {
		t.Errorf("node1 peers = %v", peers)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("expected error for missing file")
	}
}
