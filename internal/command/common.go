// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/cacheguard/internal/cache"
	"github.com/staranto/cacheguard/internal/cacheutil"
	"github.com/staranto/cacheguard/internal/config"
	"github.com/staranto/cacheguard/internal/meta"
	"github.com/staranto/cacheguard/internal/sops"
)

// GetMeta returns the meta.Meta stored in the Metadata of the command or the
// nearest ancestor carrying one. If none is found, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil {
		return meta.Meta{}
	}
	for _, c := range cmd.Lineage() {
		if c.Metadata == nil {
			continue
		}
		if m, ok := c.Metadata["meta"].(meta.Meta); ok {
			return m
		}
	}
	return meta.Meta{}
}

// CacheCommandBuilder constructs a cli.Command for the leaf cache
// subcommands (kv list, text append, ...) using a consistent pattern. The
// builder wires metadata, applies the global sealing flags and the argument
// count check.
type CacheCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Namespace string
	MinArgs   int
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (ccb *CacheCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      ccb.Name,
		Usage:     ccb.Usage,
		UsageText: ccb.UsageText,
		Metadata: map[string]any{
			"meta": ccb.Meta,
		},
		Flags: append(ccb.Flags, NewGlobalFlags(ccb.Namespace, ccb.Meta.Config.Source)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.NArg() < ccb.MinArgs {
				return ctx, fmt.Errorf("usage: %s", ccb.UsageText)
			}
			return ctx, nil
		},
		Action: ccb.Action,
	}
}

// sealerRecipients resolves the recipients from --age/--pgp, falling back to
// the age and pgp keys of the config file.
func sealerRecipients(cmd *cli.Command) sops.Recipients {
	age := cmd.StringSlice("age")
	if !cmd.IsSet("age") {
		age, _ = config.GetStringSlice("age", nil)
	}
	pgp := cmd.StringSlice("pgp")
	if !cmd.IsSet("pgp") {
		pgp, _ = config.GetStringSlice("pgp", nil)
	}
	return sops.NewRecipients(age, pgp)
}

// cacheOptions turns the global flags and meta overrides into cache options.
func cacheOptions(cmd *cli.Command, extra ...cache.Option) []cache.Option {
	m := GetMeta(cmd)

	var sealer cache.Sealer = m.Sealer
	if sealer == nil {
		sealer = sops.New(
			sops.WithBinary(cmd.String("sops")),
			sops.WithTimeout(cmd.Duration("timeout")),
		)
	}

	opts := []cache.Option{
		cache.WithRecipients(sealerRecipients(cmd)),
		cache.WithSealer(sealer),
	}
	if m.Now != nil {
		opts = append(opts, cache.WithClock(m.Now))
	}
	return append(opts, extra...)
}

// fileArg resolves the FILE argument, which always comes first.
func fileArg(cmd *cli.Command) string {
	return cacheutil.Resolve(cmd.Args().First())
}

// openKeyCache loads the key cache named by the first argument.
func openKeyCache(ctx context.Context, cmd *cli.Command) *cache.KeyCache {
	path := fileArg(cmd)
	log.Debugf("opening key cache %s", path)
	return cache.NewKeyCache(ctx, path, cacheOptions(cmd)...)
}

// openTextCache loads the text cache named by the first argument.
func openTextCache(ctx context.Context, cmd *cli.Command) *cache.TextCache {
	path := fileArg(cmd)
	log.Debugf("opening text cache %s", path)
	return cache.NewTextCache(ctx, path, cacheOptions(cmd, cache.WithTerminator(cmd.String("terminator")))...)
}

func stdout(m meta.Meta) io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func stderr(m meta.Meta) io.Writer {
	if m.Stderr != nil {
		return m.Stderr
	}
	return os.Stderr
}

func stdin(m meta.Meta) io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func now(m meta.Meta) time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// readSecret returns a value typed at the terminal without echo, or the whole
// of a piped stdin with trailing line breaks removed.
func readSecret(m meta.Meta, prompt string) (string, error) {
	in := stdin(m)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stderr(m), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr(m))
		if err != nil {
			return "", fmt.Errorf("failed to read value: %w", err)
		}
		return string(b), nil
	}

	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read value: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
