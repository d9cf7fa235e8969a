// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/config"
	"github.com/staranto/cacheguard/internal/meta"
)

// Version is set at build time with -ldflags "-X ...command.Version=...".
var Version = "dev"

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the cacheguard
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load(ns)
	if err != nil {
		log.Debugf("no config: %v", err)
	}

	return NewApp(meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}), nil
}

// NewApp builds the command tree around m. Streams, sealer, S3 client and
// clock left unset in m fall back to the process defaults.
func NewApp(m meta.Meta) *cli.Command {
	app := &cli.Command{
		Name:    "cacheguard",
		Usage:   "sops-sealed key/value and text caches",
		Version: Version,
		Metadata: map[string]any{
			"meta": m,
		},
		Writer:    stdout(m),
		ErrWriter: stderr(m),
	}

	app.Commands = append(app.Commands,
		kvCommandBuilder(m),
		textCommandBuilder(m),
		archiveCommandBuilder(m),
		backupCommandBuilder(m),
		CompletionCommandBuilder(m),
	)

	// Make sure flags are sorted for the --help text.
	for _, group := range app.Commands {
		for _, cmd := range group.Commands {
			sort.Slice(cmd.Flags, func(i, j int) bool {
				return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
			})
		}
	}

	return app
}
