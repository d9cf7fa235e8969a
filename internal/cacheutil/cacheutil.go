// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/cacheguard/internal/config"
)

// DirPrefix marks a FILE argument as relative to the cache directory, as in
// ":tokens.json".
const DirPrefix = ":"

// Dir resolves the base cache directory.
// Precedence:
//  1. CACHEGUARD_DIR, if set and non-empty
//  2. the "dir" config key
//  3. os.UserCacheDir()/cacheguard
//
// Returns ("", false) if a base cannot be resolved.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("CACHEGUARD_DIR"); ok && c != "" {
		return c, true
	}
	if c, _ := config.GetString("dir", ""); c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "cacheguard"), true
	}
	return "", false
}

// Resolve maps a FILE argument to a path. Arguments starting with DirPrefix
// are joined to Dir; anything else is returned as is. If the directory cannot
// be resolved the prefix is dropped and the name is used relative to the
// working directory.
func Resolve(arg string) string {
	name, ok := strings.CutPrefix(arg, DirPrefix)
	if !ok || name == "" {
		return arg
	}
	base, ok := Dir()
	if !ok {
		log.Warnf("no cache directory, using %s", name)
		return name
	}
	p := filepath.Join(base, filepath.Clean("/"+name))
	log.Debugf("resolved %s to %s", arg, p)
	return p
}
