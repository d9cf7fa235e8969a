// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
)

const (
	// Prefix starts every archive filename.
	Prefix = "archive-"
	// TimeLayout is the timestamp embedded in archive filenames.
	TimeLayout = "20060102_150405"
)

// Entry represents an archived sealed file on disk.
type Entry struct {
	Path    string
	Size    int64
	Created time.Time
}

// Name returns the archive path for the sealed file at path, as of now. The
// archive is a sibling of the original: archive-<YYYYMMDD_HHMMSS>-<basename>.
func Name(now time.Time, path string) string {
	base := filepath.Base(path)
	return filepath.Join(filepath.Dir(path), Prefix+now.Format(TimeLayout)+"-"+base)
}

// Move renames the file at path to its archive name and returns the new path.
// An existing archive is never overwritten; a numeric suffix is added instead.
func Move(now time.Time, path string) (string, error) {
	target := Name(now, path)
	candidate := target
	for i := 1; ; i++ {
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			break
		}
		candidate = fmt.Sprintf("%s.%d", target, i)
	}
	if err := os.Rename(path, candidate); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return candidate, nil
}

// List returns the archives of the sealed file at path, oldest first. A
// missing directory yields an empty list.
func List(path string) ([]Entry, error) {
	dir, base := filepath.Dir(path), filepath.Base(path)
	des, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var entries []Entry
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		created, ok := parse(de.Name(), base)
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(dir, de.Name()),
			Size:    info.Size(),
			Created: created,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Created.Equal(entries[j].Created) {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Created.Before(entries[j].Created)
	})
	return entries, nil
}

// Purge removes archives of path older than the provided number of hours, as
// of now, and returns how many were removed. If hours <= 0 it is a no-op.
func Purge(now time.Time, path string, hours int) (int, error) {
	if hours <= 0 {
		log.Debug("archive purging disabled")
		return 0, nil
	}
	entries, err := List(path)
	if err != nil {
		return 0, fmt.Errorf("failed to purge archives: %w", err)
	}

	maxAge := time.Duration(hours) * time.Hour
	var removed int
	for _, e := range entries {
		if now.Sub(e.Created) <= maxAge {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			log.WithError(err).Warnf("failed to remove archive %s", e.Path)
			continue
		}
		log.Debugf("removed archive %s", e.Path)
		removed++
	}
	return removed, nil
}

// parse extracts the timestamp from an archive filename belonging to base.
// Archive timestamps are local time, matching Name.
func parse(name, base string) (time.Time, bool) {
	if !strings.HasPrefix(name, Prefix) {
		return time.Time{}, false
	}
	rest := strings.TrimPrefix(name, Prefix)
	if len(rest) < len(TimeLayout)+1 || rest[len(TimeLayout)] != '-' {
		return time.Time{}, false
	}
	tail := rest[len(TimeLayout)+1:]
	if tail != base && !isNumbered(tail, base) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(TimeLayout, rest[:len(TimeLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func isNumbered(tail, base string) bool {
	suffix, ok := strings.CutPrefix(tail, base+".")
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
