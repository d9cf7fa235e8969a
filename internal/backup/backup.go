// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/staranto/cacheguard/internal/archive"
)

// ErrNoFile is returned by Push when there is no sealed file to upload.
var ErrNoFile = errors.New("no sealed file")

// ErrNoVersions is returned by FindVersion when nothing is stored.
var ErrNoVersions = errors.New("no stored versions")

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
}

// Object names a remote copy. An empty VersionID means the latest version.
type Object struct {
	Bucket    string
	Key       string
	VersionID string
}

func (o Object) String() string {
	s := fmt.Sprintf("s3://%s/%s", o.Bucket, o.Key)
	if o.VersionID != "" {
		s += "?versionId=" + o.VersionID
	}
	return s
}

// Version describes one stored version of an Object.
type Version struct {
	ID           string
	Size         int64
	LastModified time.Time
	Latest       bool
}

// Push uploads the sealed bytes at path to obj unchanged and returns the
// version ID S3 assigned, if the bucket is versioned.
func Push(ctx context.Context, api ObjectAPI, obj Object, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNoFile, path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, err := api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awsv2.String(obj.Bucket),
		Key:         awsv2.String(obj.Key),
		Body:        bytes.NewReader(data),
		ContentType: awsv2.String("application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put %s: %w", obj, err)
	}

	version := awsv2.ToString(out.VersionId)
	log.WithField("version", version).Debugf("pushed %s to %s", path, obj)
	return version, nil
}

// Pull downloads obj and writes it to path with mode 0600, creating parent
// directories. An existing file at path is archived as of now first, never
// replaced. The bytes are never decrypted.
func Pull(ctx context.Context, now time.Time, api ObjectAPI, obj Object, path string) error {
	in := &s3.GetObjectInput{
		Bucket: awsv2.String(obj.Bucket),
		Key:    awsv2.String(obj.Key),
	}
	if obj.VersionID != "" {
		in.VersionId = awsv2.String(obj.VersionID)
	}

	out, err := api.GetObject(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", obj, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", obj, err)
	}

	if _, err := os.Stat(path); err == nil {
		moved, err := archive.Move(now, path)
		if err != nil {
			return err
		}
		log.Warnf("existing %s archived to %s", path, moved)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Versions lists the stored versions of obj.Key, newest first. Delete
// markers and other keys sharing the prefix are ignored.
func Versions(ctx context.Context, api ObjectAPI, obj Object) ([]Version, error) {
	in := &s3.ListObjectVersionsInput{
		Bucket: awsv2.String(obj.Bucket),
		Prefix: awsv2.String(obj.Key),
	}

	var versions []Version
	for {
		out, err := api.ListObjectVersions(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to list versions of %s: %w", obj, err)
		}

		for _, v := range out.Versions {
			// The prefix also matches longer keys.
			if awsv2.ToString(v.Key) != obj.Key {
				log.Debugf("Throwing away %s", awsv2.ToString(v.Key))
				continue
			}
			versions = append(versions, Version{
				ID:           awsv2.ToString(v.VersionId),
				Size:         awsv2.ToInt64(v.Size),
				LastModified: awsv2.ToTime(v.LastModified),
				Latest:       awsv2.ToBool(v.IsLatest),
			})
		}

		if !awsv2.ToBool(out.IsTruncated) {
			break
		}
		in.KeyMarker = out.NextKeyMarker
		in.VersionIdMarker = out.NextVersionIdMarker
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].LastModified.After(versions[j].LastModified)
	})
	return versions, nil
}
