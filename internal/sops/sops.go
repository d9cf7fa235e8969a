// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/apex/log"
)

const (
	// DefaultBinary is the executable looked up on PATH.
	DefaultBinary = "sops"
	// DefaultTimeout bounds every sops invocation.
	DefaultTimeout = 4 * time.Second

	stdinPath = "/dev/stdin"
)

// Runner launches a process with the given stdin and returns what it wrote to
// stdout and stderr. The default runner uses os/exec.
type Runner func(ctx context.Context, argv []string, stdin string) (stdout string, stderr string, err error)

// Sops seals and unseals text by shelling out to the sops binary.
type Sops struct {
	binary  string
	timeout time.Duration
	run     Runner
	look    func(string) (string, error)
}

// Option customizes a Sops.
type Option func(*Sops)

// WithBinary overrides the sops executable name or path.
func WithBinary(name string) Option {
	return func(s *Sops) {
		if name != "" {
			s.binary = name
		}
	}
}

// WithTimeout overrides the per-call deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Sops) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRunner replaces the process launcher. The binary is then assumed to
// exist and is not looked up on PATH.
func WithRunner(r Runner) Option {
	return func(s *Sops) {
		s.run = r
		s.look = func(name string) (string, error) { return name, nil }
	}
}

// New returns a Sops with defaults applied before opts.
func New(opts ...Option) *Sops {
	s := &Sops{
		binary:  DefaultBinary,
		timeout: DefaultTimeout,
		run:     execRunner,
		look:    exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encrypt seals plaintext for the given recipients and returns the ciphertext.
func (s *Sops) Encrypt(ctx context.Context, plaintext string, r Recipients) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	args := append([]string{"-e"}, r.Args()...)
	args = append(args, stdinPath)
	out, err := s.invoke(ctx, args, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return out, nil
}

// Decrypt unseals ciphertext produced by Encrypt.
func (s *Sops) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	out, err := s.invoke(ctx, []string{"-d", stdinPath}, ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return out, nil
}

func (s *Sops) invoke(ctx context.Context, args []string, stdin string) (string, error) {
	bin, err := s.look(s.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotInstalled, s.binary)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	argv := append([]string{bin}, args...)
	log.Debugf("sops: running %s", strings.Join(argv[:2], " "))

	stdout, stderr, err := s.run(ctx, argv, stdin)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &ExecError{Command: argv, ExitCode: code, Stderr: stderr, Err: err}
	}
	return stdout, nil
}

func execRunner(ctx context.Context, argv []string, stdin string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin = strings.NewReader(stdin)
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()
	return stdout.String(), stderr.String(), err
}
