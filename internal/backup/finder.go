// Copyright (c) 2025 Steve Taranto staranto@gmail.com.
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"fmt"
	"strconv"
	"strings"
)

// RelativePrefix starts a version spec counting back from the latest.
const RelativePrefix = "~"

// IsRelative reports whether spec counts back from the latest version.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, RelativePrefix)
}

// FindVersion resolves spec against versions, which must be newest first as
// Versions returns them. A spec is one of
//
//	empty - the latest version.
//	~N    - N versions before the latest; ~0 is the latest.
//	id    - the newest version whose ID starts with id.
func FindVersion(versions []Version, spec string) (Version, error) {
	if len(versions) == 0 {
		return Version{}, ErrNoVersions
	}
	if spec == "" {
		spec = RelativePrefix + "0"
	}

	if n, ok := strings.CutPrefix(spec, RelativePrefix); ok {
		index, err := strconv.Atoi(n)
		if err != nil || index < 0 {
			return Version{}, fmt.Errorf("invalid relative version %q", spec)
		}
		if index >= len(versions) {
			return Version{}, fmt.Errorf("version %s out of range, only %d stored", spec, len(versions))
		}
		return versions[index], nil
	}

	for _, v := range versions {
		if strings.HasPrefix(v.ID, spec) {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("failed to find version %s", spec)
}
