// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sops

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInstalled is returned when the sops binary cannot be found on PATH.
	ErrNotInstalled = errors.New("sops binary not found")

	// ErrTimeout is returned when sops does not finish before the deadline.
	ErrTimeout = errors.New("sops timed out")

	// ErrInvalidRecipient is returned when a recipient fails validation.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// ExecError is returned when sops runs but exits non-zero.
type ExecError struct {
	// Command is the argv that was executed.
	Command []string
	// ExitCode is the process exit code, or -1 if it never started.
	ExitCode int
	// Stderr is whatever sops wrote to stderr.
	Stderr string
	// Err is the underlying error from the runner.
	Err error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("command %v failed with exit code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}
