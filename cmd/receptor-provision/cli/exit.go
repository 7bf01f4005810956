// Copyright 2026 The Receptor Provision Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// ExitError carries a specific process exit code out of a command's Run
// function. main inspects errors for an ExitCode method and uses the code
// instead of the generic failure exit status. The message, if non-empty,
// is printed to stderr.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode reports the process exit status main should use.
func (e *ExitError) ExitCode() int {
	return e.Code
}
