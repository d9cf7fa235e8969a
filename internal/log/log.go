// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"golang.org/x/term"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// CACHEGUARD_LOG env variable. The default is WARN so that archived caches
// are always reported.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("CACHEGUARD_LOG"))
	if level == "" {
		level = "WARN"
	}
	log.SetHandler(NewHandler(os.Stderr, isTerminal(os.Stderr)))
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.WarnLevel
	}
	log.SetLevel(lvl)
}

// CustomHandler formats log messages and writes them to W.
type CustomHandler struct {
	W     io.Writer
	Color bool
	now   func() time.Time
}

// NewHandler returns a CustomHandler writing to w.
func NewHandler(w io.Writer, color bool) *CustomHandler {
	return &CustomHandler{W: w, Color: color, now: time.Now}
}

var levelColors = map[log.Level]string{
	log.DebugLevel: "#808080",
	log.InfoLevel:  "#00c8f0",
	log.WarnLevel:  "#f6be00",
	log.ErrorLevel: "#ff5f5f",
	log.FatalLevel: "#ff5f5f",
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := fmt.Sprintf("%.1s", strings.ToUpper(e.Level.String()))
	if h.Color {
		level = lipgloss.NewStyle().Foreground(lipgloss.Color(levelColors[e.Level])).Render(level)
	}

	var fields strings.Builder
	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&fields, " %s=%v", name, e.Fields.Get(name))
	}

	_, err := fmt.Fprintf(h.W, "%s %s %s%s\n", timestamp, level, e.Message, fields.String())
	return err
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
