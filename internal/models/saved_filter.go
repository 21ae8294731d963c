// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrFilterNotFound = errors.New("saved filter not found")

// SavedFilter is a named expression filter users can recall from the TUI
type SavedFilter struct {
	ID         int       `json:"id" yaml:"-"`
	Name       string    `json:"name" yaml:"name"`
	Expression string    `json:"expression" yaml:"expression"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

// SavedFilterStore persists named expression filters
type SavedFilterStore struct {
	db *sql.DB
}

func NewSavedFilterStore(db *sql.DB) *SavedFilterStore {
	return &SavedFilterStore{db: db}
}

// Create stores a new named filter
func (s *SavedFilterStore) Create(ctx context.Context, name, expression string) (*SavedFilter, error) {
	var f SavedFilter
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO saved_filters (name, expression) VALUES (?, ?)
		RETURNING id, name, expression, created_at, updated_at`,
		name, expression,
	).Scan(&f.ID, &f.Name, &f.Expression, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create saved filter: %w", err)
	}
	return &f, nil
}

// Update replaces the expression of an existing filter
func (s *SavedFilterStore) Update(ctx context.Context, id int, expression string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE saved_filters SET expression = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		expression, id)
	if err != nil {
		return fmt.Errorf("failed to update saved filter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFilterNotFound
	}
	return nil
}

// List returns all saved filters ordered by name
func (s *SavedFilterStore) List(ctx context.Context) ([]*SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, expression, created_at, updated_at
		FROM saved_filters ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved filters: %w", err)
	}
	defer rows.Close()

	var filters []*SavedFilter
	for rows.Next() {
		var f SavedFilter
		if err := rows.Scan(&f.ID, &f.Name, &f.Expression, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved filter: %w", err)
		}
		filters = append(filters, &f)
	}

	return filters, rows.Err()
}

// GetByName looks up a filter by its unique name
func (s *SavedFilterStore) GetByName(ctx context.Context, name string) (*SavedFilter, error) {
	var f SavedFilter
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, expression, created_at, updated_at
		FROM saved_filters WHERE name = ?`, name,
	).Scan(&f.ID, &f.Name, &f.Expression, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFilterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved filter: %w", err)
	}
	return &f, nil
}

// Delete removes a saved filter
func (s *SavedFilterStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM saved_filters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete saved filter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFilterNotFound
	}
	return nil
}

// Export writes all saved filters as YAML for sharing between machines
func (s *SavedFilterStore) Export(ctx context.Context, w io.Writer) error {
	filters, err := s.List(ctx)
	if err != nil {
		return err
	}

	doc := struct {
		Filters []*SavedFilter `yaml:"filters"`
	}{Filters: filters}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode saved filters: %w", err)
	}
	return nil
}

// Import reads filters from YAML, updating existing names and creating the
// rest. Returns how many filters were imported.
func (s *SavedFilterStore) Import(ctx context.Context, r io.Reader) (int, error) {
	var doc struct {
		Filters []*SavedFilter `yaml:"filters"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("failed to decode saved filters: %w", err)
	}

	imported := 0
	for _, f := range doc.Filters {
		if f.Name == "" || f.Expression == "" {
			continue
		}

		existing, err := s.GetByName(ctx, f.Name)
		switch {
		case err == nil:
			if err := s.Update(ctx, existing.ID, f.Expression); err != nil {
				return imported, err
			}
		case errors.Is(err, ErrFilterNotFound):
			if _, err := s.Create(ctx, f.Name, f.Expression); err != nil {
				return imported, err
			}
		default:
			return imported, err
		}
		imported++
	}

	return imported, nil
}
