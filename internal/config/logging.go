// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autobrr/qui-tui/internal/domain"
)

// InitDefaultLogger configures console logging before the config is loaded
func InitDefaultLogger(version string) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Str("version", version).Logger()
}

// SetupLogging applies the loaded config: level, and rotated file output.
// The TUI owns the terminal, so with a log path set all output goes to the
// file; without one, logs land in the data dir.
func SetupLogging(cfg *domain.Config, dataDir string) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	logPath := cfg.LogPath
	if logPath == "" {
		logPath = filepath.Join(dataDir, "qui-tui.log")
	}

	var w io.Writer = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.LogMaxSize, // megabytes
		MaxBackups: cfg.LogMaxBackups,
	}

	log.Logger = zerolog.New(w).With().Timestamp().Str("version", cfg.Version).Logger()
	log.Debug().Str("logPath", logPath).Str("level", cfg.LogLevel).Msg("Logging configured")
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
