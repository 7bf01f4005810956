// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

// Package sysuser converges the service account and its directories:
// a system user created with useradd, and directories that must exist
// with a specific owner, group, and mode. Checks are separated from
// mutations so the step engine can report divergence without touching
// the host in check mode.
package sysuser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/project-receptor/provision/lib/run"
)

// Exists reports whether the named OS user exists.
func Exists(name string) bool {
	_, err := user.Lookup(name)
	return err == nil
}

// CreateCommand returns the shell equivalent of Create, for step
// hints.
func CreateCommand(name string) string {
	return fmt.Sprintf("useradd --system --no-create-home --shell /usr/sbin/nologin %s", name)
}

// Create adds a system account with no home directory and a nologin
// shell. useradd also creates the matching primary group.
func Create(ctx context.Context, runner run.Runner, name string) error {
	return runner.Run(ctx, "useradd", "--system", "--no-create-home", "--shell", "/usr/sbin/nologin", name)
}

// DirSpec describes a directory that must exist with specific
// ownership and permissions. Owner is "user:group".
type DirSpec struct {
	Path  string
	Owner string
	Mode  fs.FileMode
}

// DirState is the observed state of a directory against its spec.
type DirState struct {
	Exists  bool
	OwnerOK bool
	ModeOK  bool

	// Detail describes the divergence ("mode 0755, expected 0770").
	Detail string
}

// Converged reports whether the directory fully matches its spec.
func (s DirState) Converged() bool {
	return s.Exists && s.OwnerOK && s.ModeOK
}

// CheckDir inspects a directory against its spec. A missing directory
// is a valid state, not an error; errors mean the state could not be
// determined (unresolvable owner, stat failure, path is a file).
func CheckDir(spec DirSpec) (DirState, error) {
	var stat unix.Stat_t
	if err := unix.Stat(spec.Path, &stat); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return DirState{Detail: "does not exist"}, nil
		}
		return DirState{}, fmt.Errorf("stat %s: %w", spec.Path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFDIR {
		return DirState{}, fmt.Errorf("%s exists but is not a directory", spec.Path)
	}

	uid, gid, err := ResolveOwner(spec.Owner)
	if err != nil {
		return DirState{}, err
	}

	state := DirState{Exists: true}
	actualMode := fs.FileMode(stat.Mode) & fs.ModePerm
	state.ModeOK = actualMode == spec.Mode
	state.OwnerOK = stat.Uid == uid && stat.Gid == gid

	var issues []string
	if !state.ModeOK {
		issues = append(issues, fmt.Sprintf("mode %04o, expected %04o", actualMode, spec.Mode))
	}
	if !state.OwnerOK {
		issues = append(issues, fmt.Sprintf("owner %d:%d, expected %s (%d:%d)",
			stat.Uid, stat.Gid, spec.Owner, uid, gid))
	}
	if len(issues) > 0 {
		state.Detail = strings.Join(issues, "; ")
	} else {
		state.Detail = fmt.Sprintf("%s %04o", spec.Owner, spec.Mode)
	}
	return state, nil
}

// ApplyDir creates the directory if needed and sets its ownership and
// mode. Contents of an existing directory are left alone; only the
// directory itself is adjusted.
func ApplyDir(spec DirSpec) error {
	if err := os.MkdirAll(spec.Path, spec.Mode); err != nil {
		return fmt.Errorf("mkdir %s: %w", spec.Path, err)
	}

	uid, gid, err := ResolveOwner(spec.Owner)
	if err != nil {
		return err
	}

	if err := os.Chown(spec.Path, int(uid), int(gid)); err != nil {
		return fmt.Errorf("chown %s: %w", spec.Path, err)
	}
	// MkdirAll applies the umask; chmod sets the exact mode.
	if err := os.Chmod(spec.Path, spec.Mode); err != nil {
		return fmt.Errorf("chmod %s: %w", spec.Path, err)
	}
	return nil
}

// ApplyDirCommand returns the shell equivalent of ApplyDir.
func ApplyDirCommand(spec DirSpec) string {
	return fmt.Sprintf("mkdir -p %s && chown %s %s && chmod %04o %s",
		spec.Path, spec.Owner, spec.Path, spec.Mode, spec.Path)
}

// ResolveOwner parses "user:group" and returns the UID and GID.
func ResolveOwner(owner string) (uint32, uint32, error) {
	userName, groupName, found := strings.Cut(owner, ":")
	if !found {
		return 0, 0, fmt.Errorf("invalid owner format %q (expected user:group)", owner)
	}

	userInfo, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %q: %w", userName, err)
	}
	uid, err := strconv.ParseUint(userInfo.Uid, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse uid %q: %w", userInfo.Uid, err)
	}

	groupInfo, err := user.LookupGroup(groupName)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup group %q: %w", groupName, err)
	}
	gid, err := strconv.ParseUint(groupInfo.Gid, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse gid %q: %w", groupInfo.Gid, err)
	}

	return uint32(uid), uint32(gid), nil
}

// CurrentOwner returns "user:group" for the current process's
// effective UID and primary GID. Tests use it to build specs that are
// satisfiable without root.
func CurrentOwner() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", err
	}
	group, err := user.LookupGroupId(current.Gid)
	if err != nil {
		return "", err
	}
	return current.Username + ":" + group.Name, nil
}
