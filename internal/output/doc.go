// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output renders cache contents for the terminal: key/value tables,
// JSON and YAML documents, masked values, filters and JSON diffs.
package output
