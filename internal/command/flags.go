// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/sops"
)

// NewGlobalFlags returns the sealing flags every cache command accepts. ns is
// the config namespace (the top level command) and path the config file.
// Recipients found in neither a flag nor the environment are read from the
// config file by sealerRecipients.
func NewGlobalFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "age",
			Aliases: []string{"a"},
			Usage:   "age public key to seal for (repeatable)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEGUARD_AGE"),
			),
		},
		&cli.StringSliceFlag{
			Name:    "pgp",
			Aliases: []string{"p"},
			Usage:   "PGP fingerprint to seal for (repeatable)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEGUARD_PGP"),
			),
		},
		&cli.StringFlag{
			Name:  "sops",
			Usage: "sops executable",
			Sources: configChain(ns, "sops", path,
				cli.EnvVar("CACHEGUARD_SOPS"),
			),
			Value: sops.DefaultBinary,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "deadline for each sops call",
			Sources: configChain(ns, "timeout", path,
				cli.EnvVar("CACHEGUARD_TIMEOUT"),
			),
			Value: sops.DefaultTimeout,
		},
	}
}

// NewOutputFlags returns the flags controlling how key/value pairs are shown.
func NewOutputFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: configChain(ns, "color", path),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters on key or value",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: configChain(ns, "output", path),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolFlag{
			Name:        "reveal",
			Aliases:     []string{"r"},
			Usage:       "show values instead of masking them",
			HideDefault: true,
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: configChain(ns, "titles", path),
			Value:   false,
		},
	}
}

// NewTerminatorFlag returns the --terminator flag of the text commands.
func NewTerminatorFlag(ns string, path string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, path, &cli.StringFlag{
		Name:  "terminator",
		Usage: "line terminator of the text cache",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("CACHEGUARD_TERMINATOR"),
		),
		Value: "\n",
	})
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	if path == "" {
		return flag
	}

	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// configChain builds a source chain of the given sources followed by the
// namespaced and bare config file keys.
func configChain(ns string, name string, path string, sources ...cli.ValueSource) cli.ValueSourceChain {
	if path != "" {
		sources = append(sources,
			yaml.YAML(ns+"."+name, altsrc.StringSourcer(path)),
			yaml.YAML(name, altsrc.StringSourcer(path)),
		)
	}
	return cli.NewValueSourceChain(sources...)
}
