// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/staranto/cacheguard/internal/archive"
	"github.com/staranto/cacheguard/internal/sops"
)

// Sealer encrypts and decrypts whole documents. *sops.Sops satisfies it.
type Sealer interface {
	Encrypt(ctx context.Context, plaintext string, r sops.Recipients) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// Codec converts a cache's in-memory state to and from plaintext. Base only
// ever talks to a cache through this interface.
type Codec interface {
	// Decode replaces the state with the contents of plaintext. An empty
	// plaintext must yield the empty state and never fail.
	Decode(plaintext string) error
	// Encode renders the state as plaintext.
	Encode() (string, error)
}

// Base owns the sealed file: where it lives, who it is sealed for, and how it
// is recovered when it cannot be unsealed.
type Base struct {
	path       string
	recipients sops.Recipients
	sealer     Sealer
	logger     log.Interface
	now        func() time.Time
}

// NewBase returns a Base for the sealed file at path. It does not touch the
// filesystem.
func NewBase(path string, opts ...Option) *Base {
	o := newOptions(opts)
	return &Base{
		path:       path,
		recipients: sops.NewRecipients(o.age, o.pgp),
		sealer:     o.sealer,
		logger:     o.logger,
		now:        o.now,
	}
}

// Path returns the location of the sealed file.
func (b *Base) Path() string {
	return b.path
}

// Recipients returns a copy of the recipients used when saving.
func (b *Base) Recipients() sops.Recipients {
	return b.recipients.Clone()
}

// Exists reports whether something is present at the sealed file's path.
func (b *Base) Exists() bool {
	_, err := os.Stat(b.path)
	return !os.IsNotExist(err)
}

// Load reads and unseals the file. A missing file yields "". If unsealing
// fails for any other reason the file is archived, a warning is logged and ""
// is returned.
func (b *Base) Load(ctx context.Context) string {
	if !b.Exists() {
		return ""
	}
	plaintext, err := b.unseal(ctx)
	if err != nil {
		b.quarantine(err)
		return ""
	}
	return plaintext
}

// Restore populates c from the sealed file. A missing file decodes as empty
// without touching the filesystem. A file that cannot be unsealed or decoded
// is archived and c is reset to empty.
func (b *Base) Restore(ctx context.Context, c Codec) {
	if !b.Exists() {
		_ = c.Decode("")
		return
	}

	plaintext, err := b.unseal(ctx)
	if err == nil {
		if err = c.Decode(plaintext); err == nil {
			return
		}
		err = fmt.Errorf("failed to decode: %w", err)
	}
	b.quarantine(err)
	_ = c.Decode("")
}

// Save seals plaintext and overwrites the file with the result, creating the
// parent directories and the file itself if needed. A sealing failure leaves
// the existing file untouched.
func (b *Base) Save(ctx context.Context, plaintext string) error {
	ciphertext, err := b.sealer.Encrypt(ctx, plaintext, b.recipients)
	if err != nil {
		return fmt.Errorf("failed to seal %s: %w", b.path, err)
	}

	if !b.Exists() {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil { //nolint:mnd
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY, 0o600) //nolint:mnd
		if err != nil {
			return fmt.Errorf("failed to create cache file: %w", err)
		}
		_ = f.Close()
	}

	if err := os.WriteFile(b.path, []byte(ciphertext), 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	b.logger.Debugf("sealed %d bytes to %s", len(ciphertext), b.path)
	return nil
}

// Persist encodes c and saves the result.
func (b *Base) Persist(ctx context.Context, c Codec) error {
	plaintext, err := c.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", b.path, err)
	}
	return b.Save(ctx, plaintext)
}

func (b *Base) unseal(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		return "", err
	}
	return b.sealer.Decrypt(ctx, string(raw))
}

// quarantine moves the unreadable file aside and emits a single warning.
func (b *Base) quarantine(cause error) {
	b.logger.WithError(cause).Debugf("unable to unseal %s", b.path)

	dest, err := archive.Move(b.now(), b.path)
	if err != nil {
		b.logger.WithError(err).Warnf(
			"cache %s is corrupt or empty and could not be archived; starting empty", b.path)
		return
	}
	b.logger.Warnf(
		"cache %s is corrupt or empty; created a new one and archived the original at %s", b.path, dest)
}
