// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# cacheguard kv\n\n" +
	"## Short description\n\n" +
	"Keep secrets\nin a sealed file.\n\n" +
	"## Quick examples\n\n" +
	"```sh\n" +
	"# List keys\n" +
	"cacheguard kv list   f.json\n\n" +
	"cacheguard kv get f.json K\n" +
	"```\n\n" +
	"## Flags and related docs\n"

func TestTitleAndShortDesc(t *testing.T) {
	title, short := titleAndShortDesc(sampleDoc)

	assert.Equal(t, "cacheguard kv", title)
	assert.Equal(t, "Keep secrets in a sealed file.", short)

	_, short = titleAndShortDesc("# only a title\n")
	assert.Equal(t, "only a title.", short)
}

func TestQuickExamples(t *testing.T) {
	exs := quickExamples(sampleDoc)

	assert.Equal(t, []example{
		{Desc: "List keys", Cmd: "cacheguard kv list f.json"},
		{Desc: "Example", Cmd: "cacheguard kv get f.json K"},
	}, exs)
	assert.Nil(t, quickExamples("# nothing here\n"))
}

func TestBuildTLDR(t *testing.T) {
	got := buildTLDR("kv", "cacheguard kv", "Keep secrets.", []example{{Desc: "List keys", Cmd: "cacheguard kv list f"}})

	assert.Equal(t, "# cacheguard-kv\n\n"+
		"> Keep secrets.\n"+
		"> More information: https://github.com/staranto/cacheguard.\n\n"+
		"- List keys:\n\n"+
		"`cacheguard kv list f`\n", got)

	assert.Contains(t, buildTLDR("kv", "", "", nil), "`cacheguard kv --help`")
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	cmds := filepath.Join(root, "docs", "commands")
	require.NoError(t, os.MkdirAll(cmds, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cmds, "kv.md"), []byte(sampleDoc), 0o644))

	n, err := generate(root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.FileExists(t, filepath.Join(root, "docs", "man", "share", "man1", "cacheguard-kv.1"))
	tldr, err := os.ReadFile(filepath.Join(root, "docs", "tldr", "cacheguard-kv.md"))
	require.NoError(t, err)
	assert.Contains(t, string(tldr), "- List keys:")
}

func TestWriteFileIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, writeFileIfChanged(path, []byte("a\n"), true))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, writeFileIfChanged(path, []byte("a"), true))
	again, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())

	require.NoError(t, writeFileIfChanged(path, []byte("b"), true))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}
