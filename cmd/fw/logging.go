package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// setupLogging installs the default slog logger on w: text on a terminal,
// JSON otherwise.
func setupLogging(level string, w *os.File) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
