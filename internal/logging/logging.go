// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logrus logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/oneshot-tui/internal/config"
)

// Mode selects where log output goes.
type Mode int

const (
	// ModeLine writes to stderr. Used by the one-shot commands and the REPL.
	ModeLine Mode = iota
	// ModeTUI writes to the log file because the terminal belongs to the UI.
	ModeTUI
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init creates a logger for cfg. The returned Closer releases the log file in
// TUI mode and is a no-op otherwise.
func Init(cfg config.LoggingConfig, mode Mode) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	Apply(logger, cfg)

	if mode != ModeTUI {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}

	path, err := cfg.FilePath()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(f)
	return logger, f, nil
}

// Apply sets level and formatter from cfg. Safe to call on a live logger,
// which is how config reloads take effect.
func Apply(logger *logrus.Logger, cfg config.LoggingConfig) {
	logger.SetLevel(ParseLevel(cfg.Level))
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
		return
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})
}

// ParseLevel maps a config level to logrus, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
