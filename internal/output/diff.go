// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Diff writes an ASCII diff of two JSON objects to w and reports whether
// they differ. Nothing is written when they are equal.
func Diff(w io.Writer, left, right []byte, color bool) (bool, error) {
	d, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return false, fmt.Errorf("failed to compare documents: %w", err)
	}

	if !d.Modified() {
		return false, nil
	}

	var base map[string]interface{}
	if err := json.Unmarshal(left, &base); err != nil {
		return true, fmt.Errorf("failed to parse left document: %w", err)
	}

	f := formatter.NewAsciiFormatter(base, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	s, err := f.Format(d)
	if err != nil {
		return true, fmt.Errorf("failed to format diff: %w", err)
	}

	_, err = io.WriteString(w, s)
	return true, err
}
