// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil locates the directory holding sealed files and resolves
// ":name" FILE arguments into it.
package cacheutil
