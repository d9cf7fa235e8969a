// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"time"

	"github.com/apex/log"

	"github.com/staranto/cacheguard/internal/sops"
)

// options holds the settings shared by every cache type.
type options struct {
	age        []string
	pgp        []string
	sealer     Sealer
	logger     log.Interface
	now        func() time.Time
	terminator string
}

// Option customizes a cache at construction.
type Option func(*options)

// WithAgePubkeys sets the age recipients. The slice is copied.
func WithAgePubkeys(keys ...string) Option {
	return func(o *options) { o.age = append([]string(nil), keys...) }
}

// WithPGPFingerprints sets the PGP recipients. The slice is copied.
func WithPGPFingerprints(fps ...string) Option {
	return func(o *options) { o.pgp = append([]string(nil), fps...) }
}

// WithRecipients sets both recipient lists at once.
func WithRecipients(r sops.Recipients) Option {
	return func(o *options) {
		o.age = append([]string(nil), r.AgePubkeys...)
		o.pgp = append([]string(nil), r.PGPFingerprints...)
	}
}

// WithSealer replaces the default sops sealer.
func WithSealer(s Sealer) Option {
	return func(o *options) { o.sealer = s }
}

// WithLogger sets where warnings and debug output go. Defaults to the apex
// global logger.
func WithLogger(l log.Interface) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the time source used to name archives.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTerminator sets the line terminator of a TextCache. Other caches ignore
// it. An empty terminator keeps the default.
func WithTerminator(t string) Option {
	return func(o *options) { o.terminator = t }
}

// newOptions applies opts over the defaults.
func newOptions(opts []Option) options {
	o := options{
		logger:     log.Log,
		now:        time.Now,
		terminator: DefaultTerminator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sealer == nil {
		o.sealer = sops.New()
	}
	if o.terminator == "" {
		o.terminator = DefaultTerminator
	}
	return o
}
