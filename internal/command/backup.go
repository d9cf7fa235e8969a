// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cacheguard/internal/aws"
	"github.com/staranto/cacheguard/internal/backup"
	"github.com/staranto/cacheguard/internal/meta"
	"github.com/staranto/cacheguard/internal/output"
)

// s3Client returns the meta override or a client built from the backup
// flags and the shell's AWS configuration.
func s3Client(ctx context.Context, cmd *cli.Command) (backup.ObjectAPI, error) {
	if m := GetMeta(cmd); m.S3 != nil {
		return m.S3, nil
	}

	cfg, err := aws.LoadAWSConfig(ctx,
		aws.WithProfile(cmd.String("profile")),
		aws.WithRegion(cmd.String("region")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return aws.NewS3(cfg, aws.WithS3Endpoint(cmd.String("endpoint"))), nil
}

// backupObject names the remote copy of FILE. The key defaults to the
// file's base name.
func backupObject(cmd *cli.Command) (backup.Object, error) {
	obj := backup.Object{
		Bucket:    cmd.String("bucket"),
		Key:       cmd.String("key"),
		VersionID: cmd.String("object-version"),
	}
	if obj.Bucket == "" {
		return obj, errors.New("--bucket is required")
	}
	if obj.Key == "" {
		obj.Key = filepath.Base(fileArg(cmd))
	}
	return obj, nil
}

func backupPushCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	obj, err := backupObject(cmd)
	if err != nil {
		return err
	}
	api, err := s3Client(ctx, cmd)
	if err != nil {
		return err
	}

	version, err := backup.Push(ctx, api, obj, fileArg(cmd))
	if err != nil {
		return err
	}
	if version != "" {
		obj.VersionID = version
	}
	fmt.Fprintf(stdout(m), "pushed %s\n", obj)
	return nil
}

func backupPullCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	obj, err := backupObject(cmd)
	if err != nil {
		return err
	}
	api, err := s3Client(ctx, cmd)
	if err != nil {
		return err
	}

	if backup.IsRelative(obj.VersionID) {
		versions, err := backup.Versions(ctx, api, obj)
		if err != nil {
			return err
		}
		v, err := backup.FindVersion(versions, obj.VersionID)
		if err != nil {
			return err
		}
		log.Debugf("resolved %s to version %s", obj.VersionID, v.ID)
		obj.VersionID = v.ID
	}

	path := fileArg(cmd)
	if err := backup.Pull(ctx, now(m), api, obj, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(m), "pulled %s to %s\n", obj, path)
	return nil
}

func backupVersionsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	obj, err := backupObject(cmd)
	if err != nil {
		return err
	}
	api, err := s3Client(ctx, cmd)
	if err != nil {
		return err
	}

	versions, err := backup.Versions(ctx, api, obj)
	if err != nil {
		return err
	}
	log.Debugf("%d versions of %s", len(versions), obj)

	at := now(m)
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		latest := ""
		if v.Latest {
			latest = "*"
		}
		rows = append(rows, []string{
			v.ID,
			humanize.Bytes(uint64(v.Size)),
			humanize.RelTime(v.LastModified, at, "ago", "from now"),
			latest,
		})
	}

	output.TableWriter(stdout(m), []string{"VERSION", "SIZE", "MODIFIED", "LATEST"}, rows, cmd.Bool("titles"), false)
	return nil
}

// NewBackupFlags returns the flags locating the remote copy.
func NewBackupFlags(path string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile("backup", path, &cli.StringFlag{
			Name:    "bucket",
			Aliases: []string{"b"},
			Usage:   "S3 bucket holding the copies",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEGUARD_BUCKET"),
			),
		}),
		&cli.StringFlag{
			Name:    "key",
			Aliases: []string{"k"},
			Usage:   "object key (defaults to the file name)",
		},
		NameSpacedValueChainFlagFromConfigFile("backup", path, &cli.StringFlag{
			Name:  "profile",
			Usage: "AWS shared config profile",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AWS_PROFILE"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile("backup", path, &cli.StringFlag{
			Name:  "region",
			Usage: "AWS region",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AWS_REGION"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile("backup", path, &cli.StringFlag{
			Name:  "endpoint",
			Usage: "S3-compatible endpoint URL",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CACHEGUARD_S3_ENDPOINT"),
			),
		}),
	}
}

// backupCommandBuilder constructs the "backup" command and its subcommands.
func backupCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	leaf := func(name, usage, usageText string, action cli.ActionFunc, extra ...cli.Flag) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			UsageText: usageText,
			Metadata: map[string]any{
				"meta": meta,
			},
			Flags:  append(NewBackupFlags(src), extra...),
			Before: requireArgs(1, usageText),
			Action: action,
		}
	}

	versionFlag := &cli.StringFlag{
		Name:  "object-version",
		Usage: "object version to pull, an ID or ~N back from the latest",
	}
	titlesFlag := &cli.BoolWithInverseFlag{
		Name:    "titles",
		Aliases: []string{"t"},
		Usage:   "show titles with text output",
		Sources: configChain("backup", "titles", src),
	}

	return &cli.Command{
		Name:  "backup",
		Usage: "offsite copies of sealed files in S3",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			leaf("push", "upload a sealed file as is", "cacheguard backup push FILE --bucket B [options]", backupPushCommandAction),
			leaf("pull", "download a sealed file, archiving the local copy", "cacheguard backup pull FILE --bucket B [options]", backupPullCommandAction, versionFlag),
			leaf("versions", "list stored versions of a sealed file", "cacheguard backup versions FILE --bucket B [options]", backupVersionsCommandAction, titlesFlag),
		},
	}
}
