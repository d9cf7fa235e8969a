// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cacheguard/internal/config"
	"github.com/staranto/cacheguard/internal/meta"
	"github.com/staranto/cacheguard/internal/sops"
)

var fixedNow = time.Date(2023, 11, 6, 12, 0, 0, 0, time.Local)

type fakeSealer struct {
	recipients []sops.Recipients
}

func (f *fakeSealer) Encrypt(_ context.Context, plaintext string, r sops.Recipients) (string, error) {
	f.recipients = append(f.recipients, r)
	return "ENC[" + base64.StdEncoding.EncodeToString([]byte(plaintext)) + "]", nil
}

func (f *fakeSealer) Decrypt(_ context.Context, ciphertext string) (string, error) {
	inner, ok := strings.CutPrefix(ciphertext, "ENC[")
	if !ok || !strings.HasSuffix(inner, "]") {
		return "", errors.New("sops metadata not found")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(inner, "]"))
	return string(raw), err
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[awsv2.ToString(in.Bucket)+"/"+awsv2.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[awsv2.ToString(in.Bucket)+"/"+awsv2.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectVersions(_ context.Context, in *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	out := &s3.ListObjectVersionsOutput{}
	if data, ok := f.objects[awsv2.ToString(in.Bucket)+"/"+awsv2.ToString(in.Prefix)]; ok {
		out.Versions = append(out.Versions, types.ObjectVersion{
			Key:          in.Prefix,
			VersionId:    awsv2.String("null"),
			Size:         awsv2.Int64(int64(len(data))),
			LastModified: awsv2.Time(fixedNow.Add(-time.Hour)),
			IsLatest:     awsv2.Bool(true),
		})
	}
	return out, nil
}

// harness runs the app in-process against a temp dir, a fake sealer and a
// fake S3.
type harness struct {
	dir    string
	now    time.Time
	sealer *fakeSealer
	s3     *fakeS3
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("CACHEGUARD_CFG", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("CACHEGUARD_AGE", "")
	t.Setenv("CACHEGUARD_PGP", "")
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	return &harness{
		dir:    t.TempDir(),
		now:    fixedNow,
		sealer: &fakeSealer{},
		s3:     &fakeS3{objects: map[string][]byte{}},
	}
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

// run executes one command line with stdin and returns the error. Output
// buffers are reset first.
func (h *harness) run(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	h.out.Reset()
	h.errOut.Reset()

	app := NewApp(meta.Meta{
		Args:   args,
		Stdin:  strings.NewReader(stdin),
		Stdout: &h.out,
		Stderr: &h.errOut,
		Sealer: h.sealer,
		S3:     h.s3,
		Now:    func() time.Time { return h.now },
	})
	return app.Run(context.Background(), append([]string{"cacheguard"}, args...))
}

// plaintext unseals the file at path the way fakeSealer would.
func (h *harness) plaintext(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	s, err := h.sealer.Decrypt(context.Background(), string(raw))
	require.NoError(t, err)
	return s
}

func (h *harness) seal(t *testing.T, path, plaintext string) {
	t.Helper()
	s, err := h.sealer.Encrypt(context.Background(), plaintext, sops.Recipients{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(s), 0o600))
	h.sealer.recipients = nil
}
