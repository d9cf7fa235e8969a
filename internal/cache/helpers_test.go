// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cacheguard/internal/sops"
)

var errSeal = errors.New("sealer failure")

// fakeSealer is a reversible stand-in for sops. Ciphertext it does not
// recognise fails to decrypt.
type fakeSealer struct {
	encrypted  []string
	recipients []sops.Recipients
	failSeal   bool
}

func (f *fakeSealer) Encrypt(_ context.Context, plaintext string, r sops.Recipients) (string, error) {
	if f.failSeal {
		return "", errSeal
	}
	f.encrypted = append(f.encrypted, plaintext)
	f.recipients = append(f.recipients, r)
	return "ENC[" + base64.StdEncoding.EncodeToString([]byte(plaintext)) + "]", nil
}

func (f *fakeSealer) Decrypt(_ context.Context, ciphertext string) (string, error) {
	inner, ok := strings.CutPrefix(ciphertext, "ENC[")
	if !ok || !strings.HasSuffix(inner, "]") {
		return "", errors.New("sops metadata not found")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(inner, "]"))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// lastEncrypted returns the plaintext handed to the most recent Encrypt.
func (f *fakeSealer) lastEncrypted(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.encrypted, "nothing was encrypted")
	return f.encrypted[len(f.encrypted)-1]
}

// seal writes plaintext to path the way fakeSealer would have.
func seal(t *testing.T, path, plaintext string) {
	t.Helper()
	ct, err := (&fakeSealer{}).Encrypt(context.Background(), plaintext, sops.Recipients{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(ct), 0o600))
}

// testLogger returns a logger that records info and above in memory.
func testLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.InfoLevel}, h
}

func warnings(h *memory.Handler) []*log.Entry {
	var out []*log.Entry
	for _, e := range h.Entries {
		if e.Level == log.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

var fixedNow = time.Date(2023, 11, 6, 12, 0, 0, 0, time.Local)

func fixedClock() time.Time {
	return fixedNow
}

// dirNames lists the entries of dir by name.
func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, de := range des {
		names = append(names, de.Name())
	}
	return names
}
