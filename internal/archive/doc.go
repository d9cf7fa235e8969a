// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package archive names, moves, lists and purges the archived copies of sealed
// files that could not be unsealed.
package archive
