package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const logFilePrefix = "docvault-"

// LogLevel is Debug in dev or when DEBUG is set, Info otherwise.
func (c *Config) LogLevel() slog.Level {
	if c.Environment == "dev" || c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger builds the process JSON logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: c.LogLevel(),
	})).With("service", "docvault", "env", c.Environment)
}

// OpenLogFile creates docvault-<timestamp>.log in dir and prunes older files
// so at most keep remain. The caller closes the returned file.
func OpenLogFile(dir string, keep int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := logFilePrefix + time.Now().UTC().Format("20060102T150405.000") + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	if err := pruneLogs(dir, keep); err != nil {
		fmt.Fprintf(os.Stderr, "warning: prune log files: %v\n", err)
	}
	return f, nil
}

// pruneLogs removes the oldest docvault log files beyond keep.
// Names embed a sortable timestamp, so lexical order is age order.
func pruneLogs(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var logs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), logFilePrefix) || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		logs = append(logs, e.Name())
	}
	if keep < 1 || len(logs) <= keep {
		return nil
	}

	slices.Sort(logs)
	for _, name := range logs[:len(logs)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
