// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/autobrr/qui-tui/internal/domain"
)

var envPrefix = "QUI_TUI__"

const encryptionSecretSize = 32

// AppConfig loads, watches and exposes the application configuration
type AppConfig struct {
	Config  *domain.Config
	viper   *viper.Viper
	dataDir string
	version string

	listenersMu sync.RWMutex
	listeners   []func(*domain.Config)
}

func New(configDirOrPath string, version string) (*AppConfig, error) {
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}

	c := &AppConfig{
		viper:   viper.New(),
		Config:  &domain.Config{},
		version: version,
	}

	c.defaults()

	if err := c.load(configDirOrPath); err != nil {
		return nil, err
	}

	c.loadFromEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.Config.Version = c.version

	c.resolveDataDir()
	c.watchConfig()

	return c, nil
}

func (c *AppConfig) defaults() {
	// Generate an encryption secret on first run so instance API keys can be
	// stored encrypted without manual setup
	secret, err := generateSecureToken(encryptionSecretSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate encryption secret, using fallback")
		secret = fmt.Sprintf("change-me-%d", os.Getpid())
	}

	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("dataDir", "") // Empty means next to the config file
	c.viper.SetDefault("encryptionSecret", secret)
	c.viper.SetDefault("pollInterval", 3)
	c.viper.SetDefault("pageSize", 300)
	c.viper.SetDefault("httpTimeout", 30)
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsHost", "127.0.0.1")
	c.viper.SetDefault("metricsPort", 9075)
	c.viper.SetDefault("metricsBasicAuthUsers", "")
}

func (c *AppConfig) load(configDirOrPath string) error {
	c.viper.SetConfigType("toml")

	configPath := c.resolveConfigPath(configDirOrPath)
	c.viper.SetConfigFile(configPath)

	if err := c.viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if writeErr := c.writeDefaultConfig(configPath); writeErr != nil {
				return writeErr
			}
			if err := c.viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read newly created config: %w", err)
			}
			return nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if writeErr := c.writeDefaultConfig(configPath); writeErr != nil {
				return writeErr
			}
			if err := c.viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read newly created config: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

func (c *AppConfig) resolveConfigPath(configDirOrPath string) string {
	if configDirOrPath == "" {
		return filepath.Join(GetDefaultConfigDir(), "config.toml")
	}
	if strings.HasSuffix(strings.ToLower(configDirOrPath), ".toml") {
		return configDirOrPath
	}
	if info, err := os.Stat(configDirOrPath); err == nil && !info.IsDir() {
		return configDirOrPath
	}
	return filepath.Join(configDirOrPath, "config.toml")
}

func (c *AppConfig) loadFromEnv() {
	c.viper.SetEnvPrefix(strings.TrimSuffix(envPrefix, "__"))
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	c.viper.AutomaticEnv()
}

func (c *AppConfig) resolveDataDir() {
	if c.Config.DataDir != "" {
		c.dataDir = c.Config.DataDir
		return
	}
	c.dataDir = filepath.Dir(c.viper.ConfigFileUsed())
}

// DataDir is where the database and other files live
func (c *AppConfig) DataDir() string {
	return c.dataDir
}

func (c *AppConfig) watchConfig() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("file", e.Name).Msg("Config file changed, reloading")

		updated := &domain.Config{}
		if err := c.viper.Unmarshal(updated); err != nil {
			log.Error().Err(err).Msg("Failed to reload config, keeping previous values")
			return
		}
		updated.Version = c.version
		c.Config = updated

		c.listenersMu.RLock()
		defer c.listenersMu.RUnlock()
		for _, fn := range c.listeners {
			fn(updated)
		}
	})
	c.viper.WatchConfig()
}

// OnChange registers a callback invoked after every config reload
func (c *AppConfig) OnChange(fn func(*domain.Config)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// GetDefaultConfigDir returns the OS-specific config directory
func GetDefaultConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "qui-tui")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "qui-tui")
}

var configTemplate = `# config.toml - generated by qui-tui

# Log level: ERROR, DEBUG, INFO, WARN, TRACE
logLevel = "{{ .logLevel }}"

# Log file path. Empty logs to the data dir; the TUI never logs to stdout.
#logPath = "log/qui-tui.log"

# Secret used to encrypt instance API keys at rest. Generated on first run.
encryptionSecret = "{{ .encryptionSecret }}"

# How often the torrent list refreshes in the background, in seconds
pollInterval = {{ .pollInterval }}

# Rows fetched per backend page request
pageSize = {{ .pageSize }}

# Prometheus metrics endpoint
metricsEnabled = false
metricsHost = "127.0.0.1"
metricsPort = 9075
`

func (c *AppConfig) writeDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse config template: %w", err)
	}

	data := map[string]any{
		"logLevel":         c.viper.GetString("logLevel"),
		"encryptionSecret": c.viper.GetString("encryptionSecret"),
		"pollInterval":     c.viper.GetInt("pollInterval"),
		"pageSize":         c.viper.GetInt("pageSize"),
	}

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write config template: %w", err)
	}

	log.Info().Str("path", configPath).Msg("Generated default config file")
	return nil
}

// WriteDefaultConfig generates a default config file without loading it
func WriteDefaultConfig(configPath string) error {
	c := &AppConfig{viper: viper.New()}
	c.defaults()
	return c.writeDefaultConfig(configPath)
}

func generateSecureToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
