// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockfile manages delimited blocks inside text files. A block
// is a region bounded by BEGIN/END marker lines derived from a label:
//
//	# BEGIN receptor-provision managed block: peers
//	peers=a,b,c
//	# END receptor-provision managed block: peers
//
// [Ensure] replaces only the region between the markers (appending the
// whole block when absent) and leaves every other byte of the content
// untouched, so a file can be fully re-rendered by one writer while
// another maintains its block. All functions are pure text transforms;
// callers own the filesystem I/O.
package blockfile

import (
	"fmt"
	"strings"
)

// markerTag identifies blocks written by this tool. Kept stable across
// releases: changing it would orphan blocks written by older versions.
const markerTag = "receptor-provision managed block"

// Markers returns the BEGIN and END marker lines for a label, without
// trailing newlines.
func Markers(label string) (begin, end string) {
	return fmt.Sprintf("# BEGIN %s: %s", markerTag, label),
		fmt.Sprintf("# END %s: %s", markerTag, label)
}

// Ensure returns content with the labeled block's body set to body,
// reporting whether the content changed. When the block is absent it is
// appended at the end of content (after a terminating newline, which is
// added if missing). When present, only the lines between the markers
// are replaced; the markers themselves and everything outside them are
// preserved byte for byte.
//
// body must not contain the marker lines. A BEGIN marker without a
// matching END (or in the wrong order) is an error rather than a silent
// rewrite — the file was hand-edited and needs operator attention.
func Ensure(content, label, body string) (string, bool, error) {
	begin, end := Markers(label)

	block := begin + "\n"
	if body != "" {
		block += body
		if !strings.HasSuffix(body, "\n") {
			block += "\n"
		}
	}
	block += end + "\n"

	beginIndex, endIndex, found, err := locate(content, begin, end)
	if err != nil {
		return "", false, err
	}

	if !found {
		updated := content
		if updated != "" && !strings.HasSuffix(updated, "\n") {
			updated += "\n"
		}
		updated += block
		return updated, updated != content, nil
	}

	updated := content[:beginIndex] + block + content[endIndex:]
	return updated, updated != content, nil
}

// Extract returns the body between the labeled block's markers, without
// the markers themselves, and whether the block was found. Malformed
// markers report the block as absent; Extract is used on files we are
// about to rewrite, where [Ensure] surfaces the error.
func Extract(content, label string) (string, bool) {
	begin, end := Markers(label)
	beginIndex, endIndex, found, err := locate(content, begin, end)
	if err != nil || !found {
		return "", false
	}

	inner := content[beginIndex:endIndex]
	inner = strings.TrimPrefix(inner, begin+"\n")
	inner = strings.TrimSuffix(inner, end+"\n")
	return inner, true
}

// locate finds the byte range [beginIndex, endIndex) covering the whole
// block including both marker lines and the END line's newline. found
// is false when neither marker is present.
func locate(content, begin, end string) (beginIndex, endIndex int, found bool, err error) {
	beginIndex = indexLine(content, begin)
	endLineIndex := indexLine(content, end)

	switch {
	case beginIndex < 0 && endLineIndex < 0:
		return 0, 0, false, nil
	case beginIndex < 0:
		return 0, 0, false, fmt.Errorf("found %q without matching %q", end, begin)
	case endLineIndex < 0:
		return 0, 0, false, fmt.Errorf("found %q without matching %q", begin, end)
	case endLineIndex < beginIndex:
		return 0, 0, false, fmt.Errorf("%q appears before %q", end, begin)
	}

	endIndex = endLineIndex + len(end)
	if endIndex < len(content) && content[endIndex] == '\n' {
		endIndex++
	}
	return beginIndex, endIndex, true, nil
}

// indexLine returns the byte offset of marker occurring as a complete
// line, or -1. Matching whole lines prevents a marker-like substring in
// the block body (or elsewhere) from being mistaken for a marker.
func indexLine(content, marker string) int {
	offset := 0
	for {
		index := strings.Index(content[offset:], marker)
		if index < 0 {
			return -1
		}
		index += offset

		atLineStart := index == 0 || content[index-1] == '\n'
		afterMarker := index + len(marker)
		atLineEnd := afterMarker == len(content) || content[afterMarker] == '\n'
		if atLineStart && atLineEnd {
			return index
		}
		offset = afterMarker
	}
}
