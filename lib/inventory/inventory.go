// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package inventory parses the operator-authored host inventory: one
// JSONC file (JSON extended with comments and trailing commas) mapping
// node IDs to per-host variables. A single inventory can drive a whole
// mesh; each host's provisioning run looks up its own entry by node
// identity.
//
//	{
//	    // hub accepts connections, edges dial it
//	    "hub1":  { "peers": [] },
//	    "edge1": { "peers": ["hub1.example.com:8888"] },
//	}
package inventory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Host holds the per-node variables the inventory can set.
type Host struct {
	// Peers lists the addresses this node should connect to.
	Peers []string `json:"peers"`
}

// Inventory maps node IDs to their host variables.
type Inventory map[string]Host

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into an Inventory.
func Parse(data []byte) (Inventory, error) {
	stripped := jsonc.ToJSON(data)

	var inv Inventory
	if err := json.Unmarshal(stripped, &inv); err != nil {
		return nil, fmt.Errorf("parsing inventory: %w", err)
	}
	return inv, nil
}

// ReadFile reads a JSONC inventory file from disk and parses it.
func ReadFile(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	inv, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inv, nil
}

// Peers returns the peer list for a node and whether the inventory has
// an entry for it. A node absent from the inventory is not an error:
// the caller falls back to its own peer configuration.
func (inv Inventory) Peers(nodeID string) ([]string, bool) {
	host, ok := inv[nodeID]
	if !ok {
		return nil, false
	}
	return host.Peers, true
}
