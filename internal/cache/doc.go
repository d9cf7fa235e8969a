// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache keeps small secret caches sealed at rest. Base handles the
// sealed file itself (load, save, archive on corruption); KeyCache and
// TextCache give it a key-value or line-buffer shape through the Codec
// interface.
//
// Nothing is written until Save is called, and nothing guards against two
// processes saving the same file: the last save wins.
package cache
