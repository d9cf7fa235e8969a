// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the CLI command set for cacheguard. It wires flags,
// validators, actions, and shell completion for the kv, text, archive and
// backup command groups.
package command
