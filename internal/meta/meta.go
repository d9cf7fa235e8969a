// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"
	"io"
	"time"

	"github.com/staranto/cacheguard/internal/backup"
	"github.com/staranto/cacheguard/internal/cache"
	"github.com/staranto/cacheguard/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Sealer overrides the sops binary built from the global flags.
	Sealer cache.Sealer
	// S3 overrides the client built from the backup flags.
	S3 backup.ObjectAPI
	// Now is the clock used for archive names and purging.
	Now func() time.Time
}
