// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/meta"
)

func textShowCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	tc := openTextCache(ctx, cmd)

	_, err := io.WriteString(stdout(m), tc.String())
	return err
}

// textAppendCommandAction appends each LINE argument, or the lines read from
// stdin when there are none, and saves.
func textAppendCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	tc := openTextCache(ctx, cmd)

	lines := cmd.Args().Tail()
	if len(lines) == 0 {
		b, err := io.ReadAll(stdin(m))
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		for _, line := range strings.Split(string(b), tc.Terminator()) {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	for _, line := range lines {
		tc.Append(line)
	}

	return tc.Save(ctx)
}

// textCommandBuilder constructs the "text" command and its subcommands.
func textCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	return &cli.Command{
		Name:  "text",
		Usage: "sealed line-oriented text cache",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			(&CacheCommandBuilder{
				Name:      "show",
				Usage:     "print a text cache",
				UsageText: "cacheguard text show FILE [options]",
				Namespace: "text",
				MinArgs:   1,
				Flags:     []cli.Flag{NewTerminatorFlag("text", src)},
				Action:    textShowCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "append",
				Usage:     "append lines to a text cache",
				UsageText: "cacheguard text append FILE [LINE...] [options]",
				Namespace: "text",
				MinArgs:   1,
				Flags:     []cli.Flag{NewTerminatorFlag("text", src)},
				Action:    textAppendCommandAction,
				Meta:      meta,
			}).Build(),
		},
	}
}
