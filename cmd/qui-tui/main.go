// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/autobrr/qui-tui/internal/api"
	"github.com/autobrr/qui-tui/internal/buildinfo"
	"github.com/autobrr/qui-tui/internal/config"
	"github.com/autobrr/qui-tui/internal/database"
	"github.com/autobrr/qui-tui/internal/domain"
	internalhttp "github.com/autobrr/qui-tui/internal/http"
	"github.com/autobrr/qui-tui/internal/list"
	"github.com/autobrr/qui-tui/internal/metrics"
	"github.com/autobrr/qui-tui/internal/models"
	"github.com/autobrr/qui-tui/internal/tui"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	rootCmd := &cobra.Command{
		Use:   "qui-tui",
		Short: "A terminal client for qui-managed qBittorrent instances",
		Long: `qui-tui - a terminal frontend for the qui torrent dashboard,
built for browsing and managing 10k+ torrent instances from the shell.`,
	}
	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunCommand())
	rootCmd.AddCommand(RunVersionCommand())
	rootCmd.AddCommand(RunGenerateConfigCommand())
	rootCmd.AddCommand(RunInstanceCommand())
	rootCmd.AddCommand(RunFilterCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunCommand() *cobra.Command {
	var (
		configDir string
		instance  string
	)

	command := &cobra.Command{
		Use:   "run",
		Short: "Start the TUI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configDir, instance)
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/qui-tui/ or %APPDATA%\\qui-tui\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&instance, "instance", "", "instance name to open (default is the last one used)")

	return command
}

func RunVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of qui-tui",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.Version)
		},
	}
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				configPath = filepath.Join(config.GetDefaultConfigDir(), "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory or file path (defaults to OS-specific location)")

	return command
}

// openStores loads config, opens the database and builds the stores the
// subcommands share
func openStores(configDir string) (*config.AppConfig, *database.DB, *models.InstanceStore, error) {
	cfg, err := config.New(configDir, buildinfo.Version)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	db, err := database.New(filepath.Join(cfg.DataDir(), "qui-tui.db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	instanceStore, err := models.NewInstanceStore(db.Conn(), cfg.Config.EncryptionSecret)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize instance store: %w", err)
	}

	return cfg, db, instanceStore, nil
}

func readSecret(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(prompt)
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(secret), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	var secret string
	if _, err := fmt.Scanln(&secret); err != nil {
		return "", fmt.Errorf("failed to read input from stdin: %w", err)
	}
	return secret, nil
}

func RunInstanceCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "instance",
		Short: "Manage backend connection profiles",
	}

	var configDir string
	command.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory or file path")

	add := &cobra.Command{
		Use:   "add <name> <host>",
		Short: "Add a backend connection profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, store, err := openStores(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			apiKey, err := readSecret("API key (empty for none): ")
			if err != nil {
				return err
			}

			instance, err := store.Create(cmd.Context(), args[0], args[1], apiKey)
			if err != nil {
				return fmt.Errorf("failed to add instance: %w", err)
			}

			cmd.Printf("Added instance '%s' (%s) with ID %d\n", instance.Name, instance.Host, instance.ID)
			return nil
		},
	}

	ls := &cobra.Command{
		Use:   "list",
		Short: "List configured instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, store, err := openStores(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			instances, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				cmd.Println("No instances configured. Add one with 'qui-tui instance add'.")
				return nil
			}

			for _, inst := range instances {
				last := "never"
				if inst.LastConnectedAt != nil {
					last = inst.LastConnectedAt.Format(time.RFC3339)
				}
				key := "no key"
				if inst.APIKeyEncrypted != "" {
					key = domain.RedactString(inst.APIKeyEncrypted)
				}
				cmd.Printf("%d\t%s\t%s\t%s\tlast connected: %s\n", inst.ID, inst.Name, inst.Host, key, last)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid instance id %q", args[0])
			}

			_, db, store, err := openStores(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Removed instance %d\n", id)
			return nil
		},
	}

	command.AddCommand(add, ls, remove)
	return command
}

func RunFilterCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "filter",
		Short: "Manage saved expression filters",
	}

	var configDir string
	command.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory or file path")

	add := &cobra.Command{
		Use:   "add <name> <expression>",
		Short: "Save a named expression filter",
		Long: `Save a named expression filter. Expressions are evaluated against
torrent fields, e.g.:

  qui-tui filter add stalled 'State == "stalledDL"'
  qui-tui filter add big 'Size > 10 * 1024 * 1024 * 1024'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject expressions that would never compile in the TUI
			if _, err := list.CompileExpr(args[1]); err != nil {
				return fmt.Errorf("invalid expression: %w", err)
			}

			_, db, _, err := openStores(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			store := models.NewSavedFilterStore(db.Conn())
			filter, err := store.Create(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			cmd.Printf("Saved filter '%s'\n", filter.Name)
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Write all saved filters as YAML to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := openStores(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			return models.NewSavedFilterStore(db.Conn()).Export(cmd.Context(), cmd.OutOrStdout())
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import saved filters from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			_, db, _, err := openStores(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			count, err := models.NewSavedFilterStore(db.Conn()).Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d filters\n", count)
			return nil
		},
	}

	command.AddCommand(add, export, importCmd)
	return command
}

func run(configDir, instanceName string) error {
	cfg, db, instanceStore, err := openStores(configDir)
	if err != nil {
		return err
	}
	defer db.Close()

	config.SetupLogging(cfg.Config, cfg.DataDir())
	log.Info().Str("version", buildinfo.Version).Msg("Starting qui-tui")

	ctx := context.Background()

	settingsStore := models.NewSettingsStore(db.Conn())
	uiSettings, err := settingsStore.GetUISettings(ctx)
	if err != nil {
		return err
	}

	savedFilters, err := models.NewSavedFilterStore(db.Conn()).List(ctx)
	if err != nil {
		return err
	}

	instances, err := instanceStore.List(ctx)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		return errors.New("no instances configured, add one with 'qui-tui instance add <name> <host>'")
	}

	instance, err := pickInstance(instances, instanceName, uiSettings.LastInstanceID)
	if err != nil {
		return err
	}

	apiKey, err := instanceStore.GetDecryptedAPIKey(instance)
	if err != nil {
		return err
	}

	client, err := api.NewClient(api.ClientOptions{
		BaseURL: instance.Host,
		APIKey:  apiKey,
		Timeout: time.Duration(cfg.Config.HTTPTimeout) * time.Second,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = client.CheckCompatibility(probeCtx)
	cancel()
	if err != nil {
		if errors.Is(err, api.ErrBackendTooOld) {
			return err
		}
		// Connectivity problems surface in the TUI; starting offline is fine
		log.Warn().Err(err).Msg("Backend version probe failed")
	} else if err := instanceStore.MarkConnected(ctx, instance.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to record connection time")
	}

	var metricsManager *metrics.MetricsManager
	var metricsServer *internalhttp.MetricsServer
	if cfg.Config.MetricsEnabled {
		metricsManager = metrics.NewMetricsManager()
		metricsServer = internalhttp.NewMetricsServer(
			metricsManager,
			cfg.Config.MetricsHost,
			cfg.Config.MetricsPort,
			parseBasicAuthUsers(cfg.Config.MetricsBasicAuthUsers),
		)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	app := tui.NewApp(tui.Options{
		Client:       client,
		Instances:    instances,
		InstanceID:   instance.ID,
		Settings:     settingsStore,
		Metrics:      metricsManager,
		SavedFilters: savedFilters,
		PageSize:     cfg.Config.PageSize,
		PollInterval: time.Duration(cfg.Config.PollInterval) * time.Second,
		FetchTimeout: time.Duration(cfg.Config.HTTPTimeout) * time.Second,
		UISettings:   uiSettings,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := program.Run()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown failed")
		}
		cancel()
	}

	return runErr
}

// pickInstance resolves which instance to open: an explicit --instance name
// wins, then the last used one, then the first active.
func pickInstance(instances []*models.Instance, name string, lastID int) (*models.Instance, error) {
	if name != "" {
		for _, inst := range instances {
			if strings.EqualFold(inst.Name, name) {
				return inst, nil
			}
		}
		return nil, fmt.Errorf("no instance named %q", name)
	}

	if lastID != 0 {
		for _, inst := range instances {
			if inst.ID == lastID {
				return inst, nil
			}
		}
	}

	for _, inst := range instances {
		if inst.IsActive {
			return inst, nil
		}
	}
	return instances[0], nil
}

// parseBasicAuthUsers parses "user:pass,user2:pass2" into the map the
// middleware expects
func parseBasicAuthUsers(raw string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, pass, ok := strings.Cut(pair, ":")
		if !ok {
			log.Warn().Str("entry", name).Msg("Ignoring malformed metrics basic auth entry")
			continue
		}
		users[name] = pass
	}
	return users
}
