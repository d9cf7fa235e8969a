// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staranto/cacheguard/internal/config"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CACHEGUARD_CFG", filepath.Join(t.TempDir(), "none.yaml"))
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })
}

func TestDir(t *testing.T) {
	isolate(t)

	t.Setenv("CACHEGUARD_DIR", "/tmp/cg")
	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/cg", dir)

	t.Setenv("CACHEGUARD_DIR", "")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, ok = Dir()
	assert.True(t, ok)
	if ucd, err := os.UserCacheDir(); err == nil {
		assert.Equal(t, filepath.Join(ucd, "cacheguard"), dir)
	}
}

func TestDir_Config(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cacheguard.yaml")
	assert.NoError(t, os.WriteFile(cfg, []byte("dir: /srv/secrets\n"), 0o600))
	t.Setenv("CACHEGUARD_CFG", cfg)
	t.Setenv("CACHEGUARD_DIR", "")
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/srv/secrets", dir)
}

func TestResolve(t *testing.T) {
	isolate(t)
	t.Setenv("CACHEGUARD_DIR", "/tmp/cg")

	tests := []struct {
		arg  string
		want string
	}{
		{arg: "tokens.json", want: "tokens.json"},
		{arg: "/abs/tokens.json", want: "/abs/tokens.json"},
		{arg: ":tokens.json", want: "/tmp/cg/tokens.json"},
		{arg: ":team/tokens.json", want: "/tmp/cg/team/tokens.json"},
		{arg: ":../escape.json", want: "/tmp/cg/escape.json"},
		{arg: ":", want: ":"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.arg))
		})
	}
}
