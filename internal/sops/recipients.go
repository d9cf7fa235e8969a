// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sops

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Recipients are the credentials sops encrypts to. They are only used for
// encryption; sops finds the matching private key on its own when decrypting.
type Recipients struct {
	AgePubkeys      []string
	PGPFingerprints []string
}

// NewRecipients returns Recipients holding private copies of both slices.
func NewRecipients(age, pgp []string) Recipients {
	return Recipients{
		AgePubkeys:      clone(age),
		PGPFingerprints: clone(pgp),
	}
}

// Clone returns a deep copy of r.
func (r Recipients) Clone() Recipients {
	return NewRecipients(r.AgePubkeys, r.PGPFingerprints)
}

// Empty reports whether no recipients are set, in which case sops falls back
// to its own creation rules.
func (r Recipients) Empty() bool {
	return len(r.AgePubkeys) == 0 && len(r.PGPFingerprints) == 0
}

// Args renders the recipients as sops flags. Age pubkeys come first, then PGP
// fingerprints, each list space-joined behind a single flag.
func (r Recipients) Args() []string {
	var args []string
	if len(r.AgePubkeys) > 0 {
		args = append(args, "-a", strings.Join(r.AgePubkeys, " "))
	}
	if len(r.PGPFingerprints) > 0 {
		args = append(args, "-p", strings.Join(r.PGPFingerprints, " "))
	}
	return args
}

// Validate checks the shape of every recipient. Age recipients are either
// native (age1...) or SSH public keys; fingerprints are hex.
func (r Recipients) Validate() error {
	for _, k := range r.AgePubkeys {
		if err := validateAge(k); err != nil {
			return err
		}
	}
	for _, fp := range r.PGPFingerprints {
		if err := validateFingerprint(fp); err != nil {
			return err
		}
	}
	return nil
}

func validateAge(k string) error {
	k = strings.TrimSpace(k)
	switch {
	case k == "":
		return fmt.Errorf("%w: empty age recipient", ErrInvalidRecipient)
	case strings.HasPrefix(k, "age1"):
		return nil
	case strings.HasPrefix(k, "ssh-"):
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(k)); err != nil {
			return fmt.Errorf("%w: ssh recipient %.24q: %v", ErrInvalidRecipient, k, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %.24q is not an age or ssh public key", ErrInvalidRecipient, k)
}

func validateFingerprint(fp string) error {
	fp = strings.TrimPrefix(strings.TrimSpace(fp), "0x")
	if len(fp) < 16 || len(fp) > 40 {
		return fmt.Errorf("%w: fingerprint %q must be 16-40 hex digits", ErrInvalidRecipient, fp)
	}
	if _, err := hex.DecodeString(padEven(fp)); err != nil {
		return fmt.Errorf("%w: fingerprint %q is not hex", ErrInvalidRecipient, fp)
	}
	return nil
}

func padEven(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}

func clone(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
