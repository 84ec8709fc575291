// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog loggers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// RunLogFile is the per-run log written inside an output directory.
const RunLogFile = "download_log.txt"

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// Console returns a human-readable logger on w. Colour is enabled only
// when w is a terminal.
func Console(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(consoleWriter(w)).Level(level).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	noColor := true
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		noColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	}
	return zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.DateTime}
}

// WithRunLog returns a logger that writes to console and also appends JSON
// lines to dir/download_log.txt. The returned closer closes the file.
func WithRunLog(console io.Writer, dir string, level zerolog.Level) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, RunLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening run log %s: %w", path, err)
	}
	multi := zerolog.MultiLevelWriter(consoleWriter(console), f)
	return zerolog.New(multi).Level(level).With().Timestamp().Logger(), f, nil
}
