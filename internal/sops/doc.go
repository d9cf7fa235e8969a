// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package sops runs the sops binary as a subprocess to seal and unseal
// plaintext. Key management stays with sops; this package only renders the
// recipient flags and moves bytes through stdin/stdout.
package sops
