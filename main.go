// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/command"
	"github.com/staranto/cacheguard/internal/config"
	mylog "github.com/staranto/cacheguard/internal/log"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	args = mangleArguments(args)

	if err := app.Run(ctx, args); err != nil {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			return ec.ExitCode()
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an argument set from the config file into args,
// right after the subcommand. A "@name" argument directly after the
// subcommand selects <command>.name; without one, <command>.defaults is used
// when present. Later arguments are user data and pass through unchanged.
//
//	kv:
//	  defaults:
//	    - --age age1...
func mangleArguments(args []string) []string {
	// We need at least the executable, command and subcommand.
	if len(args) < 3 || strings.HasPrefix(args[1], "-") || strings.HasPrefix(args[2], "-") {
		return args
	}

	// Short-circuit for --help/-h.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	idx := 3
	set, named := "defaults", false
	if len(args) > idx && strings.HasPrefix(args[idx], "@") && len(args[idx]) > 1 {
		set, named = args[idx][1:], true
		idx++
	}

	setArgs, err := config.GetStringSlice(args[1] + "." + set)
	if err != nil && named {
		log.Warnf("argument set %s.%s not found", args[1], set)
	}

	mangled := append([]string{}, args[:3]...)
	for _, arg := range setArgs {
		mangled = append(mangled, strings.Fields(arg)...)
	}
	mangled = append(mangled, args[idx:]...)

	log.Debugf("set=%s, args=%v", set, mangled)
	return mangled
}
