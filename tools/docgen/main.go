// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// docgen renders docs/commands/<cmd>.md into
//   - docs/man/share/man1/cacheguard-<cmd>.1 via md2man
//   - docs/tldr/cacheguard-<cmd>.md from the short description and the
//     quick examples block

const program = "cacheguard"

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	n, err := generate(repoRoot, writeOnlyIfChanged)
	if err != nil {
		fatalf("%v", err)
	}
	if n == 0 {
		fatalf("no command markdown found under %s", filepath.Join(repoRoot, "docs", "commands"))
	}
}

// generate writes the man and tldr page of every command doc and returns how
// many docs were processed.
func generate(repoRoot string, onlyIfChanged bool) (int, error) {
	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, dir := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output dir %s: %w", dir, err)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		return 0, fmt.Errorf("reading commands dir %s: %w", commandsDir, err)
	}

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		cmd := strings.TrimSuffix(e.Name(), ".md")
		raw, err := os.ReadFile(filepath.Join(commandsDir, e.Name()))
		if err != nil {
			return processed, fmt.Errorf("reading %s: %w", e.Name(), err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", program, cmd))
		if err := writeFileIfChanged(manPath, md2man.Render(raw), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing man page for %s: %w", cmd, err)
		}

		md := string(raw)
		title, short := titleAndShortDesc(md)
		tldr := buildTLDR(cmd, title, short, quickExamples(md))
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("%s-%s.md", program, cmd))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing TLDR for %s: %w", cmd, err)
		}

		processed++
	}
	return processed, nil
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, content []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		switch {
		case err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(content)):
			return nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	return os.WriteFile(path, content, 0o644)
}

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// section returns the body following the line containing name, up to the
// next markdown header outside a code fence.
func section(md, name string) string {
	idx := strings.Index(strings.ToLower(md), strings.ToLower(name))
	if idx < 0 {
		return ""
	}
	lines := strings.Split(md[idx:], "\n")[1:]

	inFence := false
	for i, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(ln, "#") {
			lines = lines[:i]
			break
		}
	}
	return strings.Join(lines, "\n")
}

func titleAndShortDesc(md string) (title, short string) {
	if m := h1Re.FindStringSubmatch(md); m != nil {
		title = strings.TrimSpace(m[1])
	}

	// First paragraph of the "Short description" section.
	var parts []string
	for _, ln := range strings.Split(section(md, "short description"), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, ln)
	}
	short = strings.Join(parts, " ")

	if short == "" && title != "" {
		short = title + "."
	}
	return title, short
}

type example struct {
	Desc string
	Cmd  string
}

// quickExamples reads the first fenced block of the "Quick examples"
// section. A "# comment" line describes the command line that follows it.
func quickExamples(md string) []example {
	body := section(md, "quick examples")
	const fence = "```"
	start := strings.Index(body, fence)
	if start < 0 {
		return nil
	}
	body = body[start+len(fence):]
	// Skip an info string such as ```sh.
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	}
	end := strings.Index(body, fence)
	if end < 0 {
		return nil
	}

	var exs []example
	desc := ""
	for _, ln := range strings.Split(body[:end], "\n") {
		s := strings.TrimSpace(ln)
		switch {
		case s == "":
		case strings.HasPrefix(s, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
			desc = ""
		}
	}
	return exs
}

func buildTLDR(cmd, title, short string, exs []example) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s-%s\n\n", program, cmd)
	switch {
	case short != "":
		b.WriteString("> " + short + "\n")
	case title != "":
		b.WriteString("> " + title + "\n")
	default:
		fmt.Fprintf(&b, "> %s %s\n", program, cmd)
	}
	fmt.Fprintf(&b, "> More information: https://github.com/staranto/%s.\n\n", program)

	if len(exs) == 0 {
		b.WriteString("- Show help for the command:\n\n")
		fmt.Fprintf(&b, "`%s %s --help`\n\n", program, cmd)
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
