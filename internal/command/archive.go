// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/archive"
	"github.com/staranto/cacheguard/internal/meta"
	"github.com/staranto/cacheguard/internal/output"
)

// archiveListCommandAction prints the archives left beside a sealed file by
// corruption recovery, oldest first.
func archiveListCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	path := fileArg(cmd)

	entries, err := archive.List(path)
	if err != nil {
		return err
	}
	log.Debugf("%d archives of %s", len(entries), path)

	at := now(m)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			filepath.Base(e.Path),
			humanize.Bytes(uint64(e.Size)),
			humanize.RelTime(e.Created, at, "ago", "from now"),
		})
	}

	output.TableWriter(stdout(m), []string{"ARCHIVE", "SIZE", "CREATED"}, rows, cmd.Bool("titles"), false)
	return nil
}

func archivePurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	path := fileArg(cmd)

	n, err := archive.Purge(now(m), path, cmd.Int("hours"))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout(m), "purged %d %s\n", n, pluralize(n, "archive"))
	return nil
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// archiveCommandBuilder constructs the "archive" command and its subcommands.
func archiveCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	hoursSources := cli.NewValueSourceChain(cli.EnvVar("CACHEGUARD_ARCHIVE_HOURS"))
	if src != "" {
		hoursSources.Chain = append(hoursSources.Chain, yaml.YAML("archive.clean", altsrc.StringSourcer(src)))
	}

	return &cli.Command{
		Name:  "archive",
		Usage: "archived copies of corrupt sealed files",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "list the archives of a sealed file",
				UsageText: "cacheguard archive list FILE [options]",
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags: []cli.Flag{
					&cli.BoolWithInverseFlag{
						Name:    "titles",
						Aliases: []string{"t"},
						Usage:   "show titles with text output",
						Sources: configChain("archive", "titles", src),
					},
				},
				Before: requireArgs(1, "cacheguard archive list FILE"),
				Action: archiveListCommandAction,
			},
			{
				Name:      "purge",
				Usage:     "remove archives older than --hours",
				UsageText: "cacheguard archive purge FILE --hours N",
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "hours",
						Usage:   "age in hours past which archives are removed (0 disables)",
						Sources: hoursSources,
						Validator: func(value int) error {
							return FlagValidators(value, NonNegativeValidator)
						},
					},
				},
				Before: requireArgs(1, "cacheguard archive purge FILE --hours N"),
				Action: archivePurgeCommandAction,
			},
		},
	}
}

func requireArgs(n int, usage string) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if c.NArg() < n {
			return ctx, fmt.Errorf("usage: %s", usage)
		}
		return ctx, nil
	}
}
