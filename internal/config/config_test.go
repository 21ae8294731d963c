// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGeneratesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir, "1.0.0")
	require.NoError(t, err)

	configPath := filepath.Join(dir, "config.toml")
	require.FileExists(t, configPath)

	require.Equal(t, "INFO", cfg.Config.LogLevel)
	require.Equal(t, 3, cfg.Config.PollInterval)
	require.Equal(t, 300, cfg.Config.PageSize)
	require.Equal(t, "1.0.0", cfg.Config.Version)
	require.NotEmpty(t, cfg.Config.EncryptionSecret)
	require.False(t, cfg.Config.MetricsEnabled)

	// The generated file must contain the secret so instances survive restarts
	contents, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), cfg.Config.EncryptionSecret)
}

func TestNewReadsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(configPath, []byte(`
logLevel = "DEBUG"
encryptionSecret = "existing-secret"
pollInterval = 10
pageSize = 500
`), 0o644))

	cfg, err := New(dir, "1.0.0")
	require.NoError(t, err)
	require.Equal(t, "DEBUG", cfg.Config.LogLevel)
	require.Equal(t, "existing-secret", cfg.Config.EncryptionSecret)
	require.Equal(t, 10, cfg.Config.PollInterval)
	require.Equal(t, 500, cfg.Config.PageSize)
}

func TestNewAcceptsDirectFilePath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`logLevel = "WARN"`), 0o644))

	cfg, err := New(configPath, "1.0.0")
	require.NoError(t, err)
	require.Equal(t, "WARN", cfg.Config.LogLevel)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("QUI_TUI_LOGLEVEL", "TRACE")

	cfg, err := New(t.TempDir(), "1.0.0")
	require.NoError(t, err)
	require.Equal(t, "TRACE", cfg.Config.LogLevel)
}

func TestDataDirDefaultsNextToConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir, "1.0.0")
	require.NoError(t, err)
	require.Equal(t, dir, cfg.DataDir())
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	configPath := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(configPath, []byte(`dataDir = "`+dataDir+`"`), 0o644))

	cfg, err := New(dir, "1.0.0")
	require.NoError(t, err)
	require.Equal(t, dataDir, cfg.DataDir())
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteDefaultConfig(configPath))

	first, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(first), "encryptionSecret")
}
