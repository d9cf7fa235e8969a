// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// These are dummy values.
const (
	testAgePubkey      = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAINylqNJ7MbeAA/YYa0rXQhFukbnXh0ZFKNQISigutI2v"
	testGPGFingerprint = "31F5A7299414BD57611F2A2A28737947AD89864B"
	testData           = "This is only a test"
)

type call struct {
	argv  []string
	stdin string
}

func recorder(calls *[]call, stdout string, err error) Runner {
	return func(_ context.Context, argv []string, stdin string) (string, string, error) {
		*calls = append(*calls, call{argv: argv, stdin: stdin})
		return stdout, "boom", err
	}
}

func TestEncrypt_Args(t *testing.T) {
	var calls []call
	s := New(WithRunner(recorder(&calls, "sealed", nil)))

	out, err := s.Encrypt(context.Background(), testData, NewRecipients(
		[]string{testAgePubkey},
		[]string{testGPGFingerprint},
	))

	assert.NoError(t, err)
	assert.Equal(t, "sealed", out)
	assert.Len(t, calls, 1)
	assert.Equal(t, []string{"sops", "-e", "-a", testAgePubkey, "-p", testGPGFingerprint, "/dev/stdin"}, calls[0].argv)
	assert.Equal(t, testData, calls[0].stdin)
}

func TestEncrypt_MultipleAndMissingRecipients(t *testing.T) {
	tests := []struct {
		name string
		r    Recipients
		want []string
	}{
		{
			name: "no recipients",
			want: []string{"sops", "-e", "/dev/stdin"},
		},
		{
			name: "two age keys are space-joined",
			r:    NewRecipients([]string{"age1aaa", "age1bbb"}, nil),
			want: []string{"sops", "-e", "-a", "age1aaa age1bbb", "/dev/stdin"},
		},
		{
			name: "fingerprints only",
			r:    NewRecipients(nil, []string{testGPGFingerprint, "AD89864B31F5A729"}),
			want: []string{"sops", "-e", "-p", testGPGFingerprint + " AD89864B31F5A729", "/dev/stdin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []call
			s := New(WithRunner(recorder(&calls, "", nil)))
			_, err := s.Encrypt(context.Background(), testData, tt.r)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, calls[0].argv)
		})
	}
}

func TestDecrypt_Args(t *testing.T) {
	var calls []call
	s := New(WithBinary("/opt/bin/sops"), WithRunner(recorder(&calls, testData, nil)))

	out, err := s.Decrypt(context.Background(), "sealed")

	assert.NoError(t, err)
	assert.Equal(t, testData, out)
	assert.Equal(t, []string{"/opt/bin/sops", "-d", "/dev/stdin"}, calls[0].argv)
	assert.Equal(t, "sealed", calls[0].stdin)
}

func TestEncrypt_InvalidRecipientSkipsRunner(t *testing.T) {
	var calls []call
	s := New(WithRunner(recorder(&calls, "", nil)))

	_, err := s.Encrypt(context.Background(), testData, NewRecipients([]string{"not-a-key"}, nil))

	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, calls)
}

func TestInvoke_ExecError(t *testing.T) {
	var calls []call
	s := New(WithRunner(recorder(&calls, "", errors.New("exit status 128"))))

	_, err := s.Decrypt(context.Background(), "garbage")

	var execErr *ExecError
	assert.ErrorAs(t, err, &execErr)
	assert.Equal(t, -1, execErr.ExitCode)
	assert.Equal(t, "boom", execErr.Stderr)
	assert.Contains(t, err.Error(), "failed to decrypt")
}

func TestInvoke_Timeout(t *testing.T) {
	slow := func(ctx context.Context, _ []string, _ string) (string, string, error) {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	s := New(WithTimeout(10*time.Millisecond), WithRunner(slow))

	_, err := s.Decrypt(context.Background(), "sealed")

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestInvoke_NotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	s := New(WithBinary("sops-definitely-not-here"))

	_, err := s.Decrypt(context.Background(), "sealed")

	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestRecipients_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       Recipients
		wantErr bool
	}{
		{name: "empty", r: Recipients{}},
		{name: "native age", r: NewRecipients([]string{"age1ql3z7hjy54pw3hyww5ayyfg7zqgvc7w3j2elw8zmrj2kg5sfn9aqmcac8p"}, nil)},
		{name: "ssh age", r: NewRecipients([]string{testAgePubkey}, nil)},
		{name: "broken ssh", r: NewRecipients([]string{"ssh-ed25519 !!!"}, nil), wantErr: true},
		{name: "blank age", r: NewRecipients([]string{"  "}, nil), wantErr: true},
		{name: "fingerprint", r: NewRecipients(nil, []string{testGPGFingerprint})},
		{name: "short fingerprint", r: NewRecipients(nil, []string{"ABCD"}), wantErr: true},
		{name: "non-hex fingerprint", r: NewRecipients(nil, []string{"ZZZZZZZZZZZZZZZZZZ"}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecipient)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewRecipients_Copies(t *testing.T) {
	age := []string{"age1aaa"}
	r := NewRecipients(age, nil)
	age[0] = "age1zzz"

	assert.Equal(t, []string{"age1aaa"}, r.AgePubkeys)
	assert.Nil(t, r.PGPFingerprints)
	assert.False(t, r.Empty())
	assert.True(t, Recipients{}.Empty())
}
