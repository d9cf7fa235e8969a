// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cacheguard/internal/sops"
)

// stringCodec is the smallest possible Codec.
type stringCodec struct {
	data    string
	decoded int
	failOn  string
}

func (s *stringCodec) Decode(plaintext string) error {
	s.decoded++
	if plaintext != "" && plaintext == s.failOn {
		return assert.AnError
	}
	s.data = plaintext
	return nil
}

func (s *stringCodec) Encode() (string, error) {
	return s.data, nil
}

var archivePattern = regexp.MustCompile(`^archive-\d{8}_\d{6}-test_cache\.json$`)

func TestNewBase_NoFilesystemAccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "test_cache.json")

	b := NewBase(path, WithSealer(&fakeSealer{}))

	assert.Equal(t, path, b.Path())
	assert.True(t, b.Recipients().Empty())
	assert.False(t, b.Exists())
	assert.Equal(t, "", b.Load(context.Background()))
	assert.Empty(t, dirNames(t, dir))
}

func TestNewBase_RecipientsAreCopied(t *testing.T) {
	age := []string{"age1aaa"}
	b := NewBase("x", WithAgePubkeys(age...), WithPGPFingerprints("31F5A7299414BD57611F2A2A28737947AD89864B"))
	age[0] = "age1zzz"

	r := b.Recipients()
	assert.Equal(t, []string{"age1aaa"}, r.AgePubkeys)
	r.AgePubkeys[0] = "mutated"
	assert.Equal(t, []string{"age1aaa"}, b.Recipients().AgePubkeys)

	other := NewBase("y")
	assert.True(t, other.Recipients().Empty())
}

func TestBase_LoadSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_cache.json")
	seal(t, path, `{"key": "value"}`)
	logger, h := testLogger()

	b := NewBase(path, WithSealer(&fakeSealer{}), WithLogger(logger))

	assert.Equal(t, `{"key": "value"}`, b.Load(context.Background()))
	assert.Empty(t, warnings(h))
	assert.FileExists(t, path)
}

func TestBase_LoadCorruptArchives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not sealed"), 0o600))
	logger, h := testLogger()

	b := NewBase(path, WithSealer(&fakeSealer{}), WithLogger(logger), WithClock(fixedClock))
	got := b.Load(context.Background())

	assert.Equal(t, "", got)
	assert.NoFileExists(t, path)

	names := dirNames(t, dir)
	require.Len(t, names, 1)
	assert.Regexp(t, archivePattern, names[0])
	assert.Equal(t, "archive-20231106_120000-test_cache.json", names[0])

	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	require.NoError(t, err)
	assert.Equal(t, "not sealed", string(data))

	w := warnings(h)
	require.Len(t, w, 1)
	assert.Contains(t, w[0].Message, filepath.Join(dir, names[0]))
}

func TestBase_LoadUnreadableArchives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_cache.json")
	// A directory cannot be read as a file.
	require.NoError(t, os.Mkdir(path, 0o755))
	logger, h := testLogger()

	b := NewBase(path, WithSealer(&fakeSealer{}), WithLogger(logger))

	assert.Equal(t, "", b.Load(context.Background()))
	assert.NoDirExists(t, path)
	assert.Len(t, warnings(h), 1)
}

func TestBase_RestoreMissing(t *testing.T) {
	dir := t.TempDir()
	c := &stringCodec{data: "stale"}

	NewBase(filepath.Join(dir, "test_cache.json"), WithSealer(&fakeSealer{})).Restore(context.Background(), c)

	assert.Equal(t, "", c.data)
	assert.Equal(t, 1, c.decoded)
	assert.Empty(t, dirNames(t, dir))
}

func TestBase_RestoreDecodeFailureArchives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_cache.json")
	seal(t, path, "unparseable")
	logger, h := testLogger()
	c := &stringCodec{failOn: "unparseable"}

	NewBase(path, WithSealer(&fakeSealer{}), WithLogger(logger)).Restore(context.Background(), c)

	assert.Equal(t, "", c.data)
	assert.NoFileExists(t, path)
	names := dirNames(t, dir)
	require.Len(t, names, 1)
	assert.Regexp(t, archivePattern, names[0])
	assert.Len(t, warnings(h), 1)
}

func TestBase_SaveCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "test_cache.json")
	sealer := &fakeSealer{}
	b := NewBase(path, WithSealer(sealer), WithAgePubkeys("age1aaa"))

	require.NoError(t, b.Save(context.Background(), `{"key": "value"}`))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	plain, err := sealer.Decrypt(context.Background(), string(raw))
	require.NoError(t, err)
	assert.Equal(t, `{"key": "value"}`, plain)
	assert.Equal(t, `{"key": "value"}`, sealer.lastEncrypted(t))
	assert.Equal(t, sops.NewRecipients([]string{"age1aaa"}, nil), sealer.recipients[0])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestBase_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous ciphertext body"), 0o600))
	sealer := &fakeSealer{}

	require.NoError(t, NewBase(path, WithSealer(sealer)).Save(context.Background(), "x"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ENC[eA==]", string(raw))
}

func TestBase_SaveSealFailureLeavesFile(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "test_cache.json")
	require.NoError(t, os.WriteFile(existing, []byte("previous"), 0o600))
	missing := filepath.Join(dir, "sub", "new.json")
	sealer := &fakeSealer{failSeal: true}

	err := NewBase(existing, WithSealer(sealer)).Save(context.Background(), "x")
	assert.ErrorIs(t, err, errSeal)
	data, _ := os.ReadFile(existing)
	assert.Equal(t, "previous", string(data))

	err = NewBase(missing, WithSealer(sealer)).Save(context.Background(), "x")
	assert.ErrorIs(t, err, errSeal)
	assert.NoDirExists(t, filepath.Join(dir, "sub"))
}

func TestBase_PersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_cache.json")
	sealer := &fakeSealer{}
	b := NewBase(path, WithSealer(sealer))

	require.NoError(t, b.Persist(context.Background(), &stringCodec{data: "payload"}))

	c := &stringCodec{}
	b.Restore(context.Background(), c)
	assert.Equal(t, "payload", c.data)
}
