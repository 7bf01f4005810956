// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodeconf renders the per-node receptor configuration file.
//
// The desired file content is the embedded template rendered with the
// node's identity, plus a managed peer block when the node has peers.
// [Desired] is a pure function over the current on-disk content, so a
// full re-render never destroys the peer block and a re-run with
// identical inputs produces byte-identical output. [EnsureFile] writes
// only on divergence and reports whether a change occurred.
package nodeconf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/project-receptor/provision/lib/blockfile"
	"github.com/project-receptor/provision/lib/content"
	"github.com/project-receptor/provision/lib/sysuser"
)

// peerBlockLabel names the managed block carrying the peer list.
const peerBlockLabel = "peers"

// Params are the template inputs for one node.
type Params struct {
	NodeID  string
	DataDir string
}

// FileName returns the per-node config file name, e.g.
// "receptor-node1.conf".
func FileName(nodeID string) string {
	return fmt.Sprintf("receptor-%s.conf", nodeID)
}

// Path returns the full per-node config path under configDir.
func Path(configDir, nodeID string) string {
	return filepath.Join(configDir, FileName(nodeID))
}

// Render executes the embedded config template with params.
func Render(params Params) (string, error) {
	parsed, err := template.New("receptor.conf").Parse(content.ConfigTemplate())
	if err != nil {
		// The template is embedded; a parse failure is a build bug.
		return "", fmt.Errorf("parsing embedded config template: %w", err)
	}

	var rendered strings.Builder
	if err := parsed.Execute(&rendered, params); err != nil {
		return "", fmt.Errorf("rendering config for %s: %w", params.NodeID, err)
	}
	return rendered.String(), nil
}

// PeerBlockBody returns the managed block body for a peer list: one
// "peers=" line with the addresses comma-joined in order.
func PeerBlockBody(peers []string) string {
	return "peers=" + strings.Join(peers, ",")
}

// Desired computes the full desired file content: the rendered
// template plus the managed peer block. With a non-empty peer list the
// block is set to exactly the comma-joined list. With an empty list no
// block is added, but a block already present in current is carried
// over unchanged — this tool does not handle peer removal.
func Desired(params Params, peers []string, current string) (string, error) {
	rendered, err := Render(params)
	if err != nil {
		return "", err
	}

	if len(peers) > 0 {
		desired, _, err := blockfile.Ensure(rendered, peerBlockLabel, PeerBlockBody(peers))
		if err != nil {
			return "", err
		}
		return desired, nil
	}

	if body, found := blockfile.Extract(current, peerBlockLabel); found {
		desired, _, err := blockfile.Ensure(rendered, peerBlockLabel, body)
		if err != nil {
			return "", err
		}
		return desired, nil
	}

	return rendered, nil
}

// ReadCurrent returns the current file content, or "" when the file
// does not exist yet.
func ReadCurrent(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// EnsureFile writes content to path with the given owner and mode,
// reporting whether anything changed. The write is atomic: content
// goes to a temporary file in the same directory which is renamed over
// the target, so a crashed run never leaves a half-written config. An
// already-correct file is left untouched.
func EnsureFile(path, desired, owner string, mode fs.FileMode) (bool, error) {
	current, err := ReadCurrent(path)
	if err != nil {
		return false, err
	}
	if current == desired {
		return false, nil
	}

	uid, gid, err := sysuser.ResolveOwner(owner)
	if err != nil {
		return false, err
	}

	tempPath := path + ".new"
	if err := os.WriteFile(tempPath, []byte(desired), mode); err != nil {
		return false, fmt.Errorf("writing %s: %w", tempPath, err)
	}
	if err := os.Chown(tempPath, int(uid), int(gid)); err != nil {
		os.Remove(tempPath)
		return false, fmt.Errorf("chown %s: %w", tempPath, err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return false, fmt.Errorf("chmod %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return false, fmt.Errorf("rename %s -> %s: %w", tempPath, path, err)
	}
	return true, nil
}
