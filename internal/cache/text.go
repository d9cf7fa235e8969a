// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"strings"
)

// DefaultTerminator separates lines in a TextCache.
const DefaultTerminator = "\n"

// TextCache is a sealed, append-only text buffer.
type TextCache struct {
	*Base
	terminator string
	buf        strings.Builder
}

// NewTextCache opens the text cache at path. Each non-empty line of the
// unsealed text is appended to the buffer, so the buffer always ends with a
// terminator when it is not empty.
func NewTextCache(ctx context.Context, path string, opts ...Option) *TextCache {
	o := newOptions(opts)
	tc := &TextCache{
		Base:       NewBase(path, opts...),
		terminator: o.terminator,
	}
	tc.Restore(ctx, tc)
	return tc
}

// Load re-reads the sealed file and rebuilds the buffer exactly as
// construction does. It returns the unsealed text.
func (tc *TextCache) Load(ctx context.Context) string {
	plaintext := tc.Base.Load(ctx)
	_ = tc.Decode(plaintext)
	return plaintext
}

// Save seals the buffer with surrounding whitespace trimmed.
func (tc *TextCache) Save(ctx context.Context) error {
	return tc.Persist(ctx, tc)
}

// Append adds line followed by the terminator. Terminators inside line are
// kept and become line breaks on the next load.
func (tc *TextCache) Append(line string) {
	tc.buf.WriteString(line)
	tc.buf.WriteString(tc.terminator)
}

// String returns the buffer as is.
func (tc *TextCache) String() string {
	return tc.buf.String()
}

// Lines returns the non-empty lines of the buffer.
func (tc *TextCache) Lines() []string {
	return split(tc.buf.String(), tc.terminator)
}

// Terminator returns the line terminator in use.
func (tc *TextCache) Terminator() string {
	return tc.terminator
}

// Decode implements Codec. It cannot fail.
func (tc *TextCache) Decode(plaintext string) error {
	tc.buf.Reset()
	for _, line := range split(plaintext, tc.terminator) {
		tc.Append(line)
	}
	return nil
}

// Encode implements Codec.
func (tc *TextCache) Encode() (string, error) {
	return strings.TrimSpace(tc.buf.String()), nil
}

func split(s, terminator string) []string {
	var lines []string
	for _, line := range strings.Split(s, terminator) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
