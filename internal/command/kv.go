// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/cache"
	"github.com/staranto/cacheguard/internal/meta"
	"github.com/staranto/cacheguard/internal/output"
)

// kvListCommandAction prints the pairs of a key cache, masked unless
// --reveal is given.
func kvListCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	kc := openKeyCache(ctx, cmd)

	data := kc.Data()
	keys := output.FilterKeys(data, kc.Keys(), cmd.String("filter"))
	if !cmd.Bool("reveal") {
		for k, v := range data {
			data[k] = output.Masked(v)
		}
	}

	return output.Pairs(stdout(m), data, keys, cmd.String("output"), cmd.Bool("titles"), cmd.Bool("color"))
}

func kvGetCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	kc := openKeyCache(ctx, cmd)

	key := cmd.Args().Get(1)
	value, ok := kc.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", cache.ErrMissingKey, key)
	}
	fmt.Fprintln(stdout(m), value)
	return nil
}

// kvSetCommandAction stores KEY. Without a VALUE argument the value is
// prompted for, or read from stdin when it is not a terminal.
func kvSetCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	kc := openKeyCache(ctx, cmd)

	key := cmd.Args().Get(1)
	if key == "" {
		return errors.New("key must not be empty")
	}

	var value string
	if cmd.NArg() > 2 {
		value = cmd.Args().Get(2)
	} else {
		v, err := readSecret(m, fmt.Sprintf("Value for %s: ", key))
		if err != nil {
			return err
		}
		value = v
	}

	kc.Set(key, value)
	return kc.Save(ctx)
}

func kvRmCommandAction(ctx context.Context, cmd *cli.Command) error {
	kc := openKeyCache(ctx, cmd)

	removed := 0
	for _, key := range cmd.Args().Tail() {
		if kc.Delete(key) {
			removed++
			continue
		}
		log.Warnf("key %s not found", key)
	}

	if removed == 0 {
		return nil
	}
	return kc.Save(ctx)
}

// envNameRe matches the keys that are safe as shell variable names.
var envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// kvExportCommandAction prints the pairs as shell export statements. Keys
// that are not valid variable names are skipped with a warning.
func kvExportCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	kc := openKeyCache(ctx, cmd)

	for _, k := range kc.Keys() {
		if !envNameRe.MatchString(k) {
			log.Warnf("skipping key %q, not a valid variable name", k)
			continue
		}
		v, _ := kc.Get(k)
		fmt.Fprintf(stdout(m), "export %s=%s\n", k, shellQuote(v))
	}
	return nil
}

// kvExecCommandAction deploys every pair into the environment and runs the
// command following the file argument with it.
func kvExecCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	kc := openKeyCache(ctx, cmd)

	argv := cmd.Args().Tail()
	if len(argv) > 0 && argv[0] == "--" {
		argv = argv[1:]
	}
	if len(argv) == 0 {
		return errors.New("no command to run")
	}

	if err := kc.Deploy(); err != nil {
		return err
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Env = os.Environ()
	c.Stdin = stdin(m)
	c.Stdout = stdout(m)
	c.Stderr = stderr(m)

	log.Debugf("running %v", argv)
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return cli.Exit("", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return nil
}

// kvDiffCommandAction compares the cache with a plaintext JSON document.
func kvDiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	kc := openKeyCache(ctx, cmd)

	left, err := kc.Encode()
	if err != nil {
		return err
	}

	other := cmd.Args().Get(1)
	right, err := os.ReadFile(other)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", other, err)
	}

	modified, err := output.Diff(stdout(m), []byte(left), right, cmd.Bool("color"))
	if err != nil {
		return err
	}
	if !modified {
		log.Infof("%s matches %s", kc.Path(), other)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// kvCommandBuilder constructs the "kv" command and its subcommands.
func kvCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	return &cli.Command{
		Name:  "kv",
		Usage: "sealed key/value cache",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			(&CacheCommandBuilder{
				Name:      "list",
				Usage:     "list the pairs of a key cache",
				UsageText: "cacheguard kv list FILE [options]",
				Namespace: "kv",
				MinArgs:   1,
				Flags:     NewOutputFlags("kv", src),
				Action:    kvListCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "get",
				Usage:     "print the value of a key",
				UsageText: "cacheguard kv get FILE KEY",
				Namespace: "kv",
				MinArgs:   2,
				Action:    kvGetCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "set",
				Usage:     "store a key, prompting for the value if omitted",
				UsageText: "cacheguard kv set FILE KEY [VALUE]",
				Namespace: "kv",
				MinArgs:   2,
				Action:    kvSetCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "rm",
				Usage:     "remove keys",
				UsageText: "cacheguard kv rm FILE KEY...",
				Namespace: "kv",
				MinArgs:   2,
				Action:    kvRmCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "export",
				Usage:     "print the pairs as shell export statements",
				UsageText: "cacheguard kv export FILE",
				Namespace: "kv",
				MinArgs:   1,
				Action:    kvExportCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "exec",
				Usage:     "run a command with the pairs in its environment",
				UsageText: "cacheguard kv exec FILE -- CMD [ARGS...]",
				Namespace: "kv",
				MinArgs:   2,
				Action:    kvExecCommandAction,
				Meta:      meta,
			}).Build(),
			(&CacheCommandBuilder{
				Name:      "diff",
				Usage:     "compare a key cache with a plaintext JSON file",
				UsageText: "cacheguard kv diff FILE JSONFILE [options]",
				Namespace: "kv",
				MinArgs:   2,
				Flags: []cli.Flag{
					&cli.BoolWithInverseFlag{
						Name:    "color",
						Aliases: []string{"c"},
						Usage:   "enable colored diff output",
						Sources: configChain("kv", "color", src),
					},
				},
				Action: kvDiffCommandAction,
				Meta:   meta,
			}).Build(),
		},
	}
}
