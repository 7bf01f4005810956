// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package content provides the canonical file content that
// receptor-provision installs on a node: the receptor@.service systemd
// template unit and the receptor.conf template.
//
// Files are embedded at compile time via go:embed. The provisioning
// steps compare installed files against this content and write it when
// converging a node, so the embedded copy is the single source of
// truth for what "correct" looks like on disk.
package content

import "embed"

//go:embed systemd/receptor@.service conf/receptor.conf.tmpl
var files embed.FS

// ServiceUnit returns the canonical content of the receptor@.service
// systemd template unit. The unit is parameterized by instance name:
// systemd substitutes the part after "@" for %i, so receptor@node1
// reads /etc/receptor/receptor-node1.conf.
func ServiceUnit() string {
	data, err := files.ReadFile("systemd/receptor@.service")
	if err != nil {
		// Embedded at compile time — a read failure here is a build bug.
		panic("embedded receptor@.service missing: " + err.Error())
	}
	return string(data)
}

// ConfigTemplate returns the text/template source for the per-node
// receptor configuration file.
func ConfigTemplate() string {
	data, err := files.ReadFile("conf/receptor.conf.tmpl")
	if err != nil {
		panic("embedded receptor.conf.tmpl missing: " + err.Error())
	}
	return string(data)
}
