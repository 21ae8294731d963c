// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/autobrr/qui-tui/internal/domain"
)

var ErrInstanceNotFound = errors.New("instance not found")

// Instance is one named backend connection profile. The API key is
// encrypted at rest.
type Instance struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Host            string     `json:"host"`
	APIKeyEncrypted string     `json:"-"`
	IsActive        bool       `json:"is_active"`
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// InstanceStore persists backend connection profiles
type InstanceStore struct {
	db            *sql.DB
	encryptionKey []byte
}

// NewInstanceStore derives the at-rest encryption key from the config
// secret with argon2id and returns the store.
func NewInstanceStore(db *sql.DB, encryptionSecret string) (*InstanceStore, error) {
	if encryptionSecret == "" {
		return nil, errors.New("encryption secret is required")
	}

	// Fixed salt: the secret itself is random and per-installation
	key := argon2.IDKey([]byte(encryptionSecret), []byte("qui-tui-instance-keys"), 1, 64*1024, 4, 32)

	return &InstanceStore{
		db:            db,
		encryptionKey: key,
	}, nil
}

// encrypt encrypts a string using AES-GCM
func (s *InstanceStore) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a string encrypted with encrypt
func (s *InstanceStore) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("host is required")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid host URL: %w", err)
	}
	if u.Host == "" {
		return "", errors.New("host URL has no hostname")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Create adds a connection profile
func (s *InstanceStore) Create(ctx context.Context, name, host, apiKey string) (*Instance, error) {
	normalized, err := normalizeHost(host)
	if err != nil {
		return nil, err
	}

	encrypted := ""
	if apiKey != "" {
		encrypted, err = s.encrypt(apiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt API key: %w", err)
		}
	}

	var instance Instance
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO instances (name, host, api_key_encrypted)
		VALUES (?, ?, ?)
		RETURNING id, name, host, api_key_encrypted, is_active, last_connected_at, created_at, updated_at`,
		name, normalized, encrypted,
	).Scan(&instance.ID, &instance.Name, &instance.Host, &instance.APIKeyEncrypted,
		&instance.IsActive, &instance.LastConnectedAt, &instance.CreatedAt, &instance.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	return &instance, nil
}

// Get fetches one profile by id
func (s *InstanceStore) Get(ctx context.Context, id int) (*Instance, error) {
	var instance Instance
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, host, api_key_encrypted, is_active, last_connected_at, created_at, updated_at
		FROM instances WHERE id = ?`, id,
	).Scan(&instance.ID, &instance.Name, &instance.Host, &instance.APIKeyEncrypted,
		&instance.IsActive, &instance.LastConnectedAt, &instance.CreatedAt, &instance.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInstanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return &instance, nil
}

// List returns all profiles ordered by name
func (s *InstanceStore) List(ctx context.Context) ([]*Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host, api_key_encrypted, is_active, last_connected_at, created_at, updated_at
		FROM instances ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*Instance
	for rows.Next() {
		var instance Instance
		if err := rows.Scan(&instance.ID, &instance.Name, &instance.Host, &instance.APIKeyEncrypted,
			&instance.IsActive, &instance.LastConnectedAt, &instance.CreatedAt, &instance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		instances = append(instances, &instance)
	}

	return instances, rows.Err()
}

// Delete removes a profile
func (s *InstanceStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM instances WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

// UpdateAPIKey replaces the stored API key
func (s *InstanceStore) UpdateAPIKey(ctx context.Context, id int, apiKey string) error {
	// A round-tripped display placeholder must never overwrite the real key
	if domain.IsRedactedString(apiKey) {
		return errors.New("api key value is the redaction placeholder")
	}

	encrypted := ""
	if apiKey != "" {
		var err error
		encrypted, err = s.encrypt(apiKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt API key: %w", err)
		}
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE instances SET api_key_encrypted = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		encrypted, id)
	if err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

// MarkConnected records a successful connection
func (s *InstanceStore) MarkConnected(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE instances SET last_connected_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

// GetDecryptedAPIKey returns the plaintext API key for connecting
func (s *InstanceStore) GetDecryptedAPIKey(instance *Instance) (string, error) {
	if instance.APIKeyEncrypted == "" {
		return "", nil
	}
	key, err := s.decrypt(instance.APIKeyEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}
	return key, nil
}
