// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSavedFilterStoreCRUD(t *testing.T) {
	db := testDB(t)
	store := NewSavedFilterStore(db.Conn())
	ctx := context.Background()

	created, err := store.Create(ctx, "stalled", `State == "stalledDL"`)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := store.GetByName(ctx, "stalled")
	require.NoError(t, err)
	require.Equal(t, `State == "stalledDL"`, got.Expression)

	require.NoError(t, store.Update(ctx, created.ID, `State == "stalledUP"`))
	got, err = store.GetByName(ctx, "stalled")
	require.NoError(t, err)
	require.Equal(t, `State == "stalledUP"`, got.Expression)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.GetByName(ctx, "stalled")
	require.ErrorIs(t, err, ErrFilterNotFound)
}

func TestSavedFilterStoreDuplicateName(t *testing.T) {
	db := testDB(t)
	store := NewSavedFilterStore(db.Conn())
	ctx := context.Background()

	_, err := store.Create(ctx, "big", "Size > 10737418240")
	require.NoError(t, err)
	_, err = store.Create(ctx, "big", "Size > 0")
	require.Error(t, err)
}

func TestSavedFilterStoreExportImport(t *testing.T) {
	db := testDB(t)
	store := NewSavedFilterStore(db.Conn())
	ctx := context.Background()

	_, err := store.Create(ctx, "big", "Size > 10737418240")
	require.NoError(t, err)
	_, err = store.Create(ctx, "unregistered", `Ratio == 0 && NumSeeds == 0`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.Export(ctx, &buf))
	require.Contains(t, buf.String(), "name: big")

	// Import into a fresh database
	other := NewSavedFilterStore(testDB(t).Conn())
	imported, err := other.Import(ctx, strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Equal(t, 2, imported)

	filters, err := other.List(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 2)
}

func TestSavedFilterStoreImportUpdatesExisting(t *testing.T) {
	db := testDB(t)
	store := NewSavedFilterStore(db.Conn())
	ctx := context.Background()

	_, err := store.Create(ctx, "big", "Size > 0")
	require.NoError(t, err)

	doc := "filters:\n  - name: big\n    expression: Size > 10737418240\n"
	imported, err := store.Import(ctx, strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 1, imported)

	got, err := store.GetByName(ctx, "big")
	require.NoError(t, err)
	require.Equal(t, "Size > 10737418240", got.Expression)

	filters, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, filters, 1)
}

func TestSettingsStoreRoundTrip(t *testing.T) {
	db := testDB(t)
	store := NewSettingsStore(db.Conn())
	ctx := context.Background()

	// Unset key returns defaults
	settings, err := store.GetUISettings(ctx)
	require.NoError(t, err)
	require.Equal(t, "table", settings.ActiveView)
	require.Equal(t, "added_on", settings.SortField)

	settings.LastInstanceID = 3
	settings.ActiveView = "cards"
	settings.VisibleColumns = []string{"name", "progress", "ratio"}
	require.NoError(t, store.SetUISettings(ctx, settings))

	got, err := store.GetUISettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, got.LastInstanceID)
	require.Equal(t, "cards", got.ActiveView)
	require.Equal(t, []string{"name", "progress", "ratio"}, got.VisibleColumns)
}

func TestSettingsStoreCorruptValueFallsBack(t *testing.T) {
	db := testDB(t)
	store := NewSettingsStore(db.Conn())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ui_settings", "{not json"))

	settings, err := store.GetUISettings(ctx)
	require.NoError(t, err)
	require.Equal(t, "table", settings.ActiveView)
}
