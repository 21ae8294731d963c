// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// UISettings is everything the TUI restores between sessions
type UISettings struct {
	LastInstanceID int      `json:"last_instance_id"`
	ActiveView     string   `json:"active_view"`
	VisibleColumns []string `json:"visible_columns,omitempty"`
	SortField      string   `json:"sort_field,omitempty"`
	SortOrder      string   `json:"sort_order,omitempty"`
}

const uiSettingsKey = "ui_settings"

// SettingsStore is a key/value store over the settings table
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the raw value for a key, or "" when unset
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value, replacing any previous one
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetUISettings loads the persisted UI state. Missing or corrupt state
// returns defaults rather than an error, so a bad row never blocks startup.
func (s *SettingsStore) GetUISettings(ctx context.Context) (*UISettings, error) {
	raw, err := s.Get(ctx, uiSettingsKey)
	if err != nil {
		return nil, err
	}

	settings := &UISettings{
		ActiveView: "table",
		SortField:  "added_on",
		SortOrder:  "desc",
	}
	if raw == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), settings); err != nil {
		return &UISettings{ActiveView: "table", SortField: "added_on", SortOrder: "desc"}, nil
	}
	return settings, nil
}

// SetUISettings persists the UI state
func (s *SettingsStore) SetUISettings(ctx context.Context, settings *UISettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal UI settings: %w", err)
	}
	return s.Set(ctx, uiSettingsKey, string(raw))
}
