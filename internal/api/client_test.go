// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestListTorrentsSendsQueryParams(t *testing.T) {
	var gotQuery map[string]string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/instances/3/torrents", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}

		json.NewEncoder(w).Encode(TorrentResponse{
			Torrents: []qbt.Torrent{{Hash: "abc", Name: "test"}},
			Total:    1,
		})
	}))

	resp, err := client.ListTorrents(context.Background(), ListRequest{
		InstanceID: 3,
		Page:       2,
		Limit:      300,
		Sort:       "added_on",
		Order:      "desc",
		Search:     "ubuntu",
		Filters:    FilterOptions{Status: []string{"downloading"}, Categories: []string{"linux"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Torrents, 1)
	require.Equal(t, 1, resp.Total)

	require.Equal(t, "2", gotQuery["page"])
	require.Equal(t, "300", gotQuery["limit"])
	require.Equal(t, "added_on", gotQuery["sort"])
	require.Equal(t, "desc", gotQuery["order"])
	require.Equal(t, "ubuntu", gotQuery["search"])

	var filters FilterOptions
	require.NoError(t, json.Unmarshal([]byte(gotQuery["filters"]), &filters))
	require.Equal(t, []string{"downloading"}, filters.Status)
	require.Equal(t, []string{"linux"}, filters.Categories)
}

func TestListTorrentsOmitsEmptyFilters(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("filters"))
		require.False(t, r.URL.Query().Has("search"))
		json.NewEncoder(w).Encode(TorrentResponse{})
	}))

	_, err := client.ListTorrents(context.Background(), ListRequest{InstanceID: 1, Limit: 100})
	require.NoError(t, err)
}

func TestListTorrentsCachesIdenticalRequests(t *testing.T) {
	var hits atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(TorrentResponse{Total: 5})
	}))

	req := ListRequest{InstanceID: 1, Page: 0, Limit: 100, Sort: "added_on", Order: "desc"}

	_, err := client.ListTorrents(context.Background(), req)
	require.NoError(t, err)

	// ristretto admits asynchronously, so poll until a repeat request stops
	// reaching the server
	require.Eventually(t, func() bool {
		before := hits.Load()
		resp, err := client.ListTorrents(context.Background(), req)
		require.NoError(t, err)
		require.Equal(t, 5, resp.Total)
		return hits.Load() == before
	}, time.Second, 10*time.Millisecond)

	// A different page is a separate cache entry
	before := hits.Load()
	_, err = client.ListTorrents(context.Background(), ListRequest{InstanceID: 1, Page: 1, Limit: 100, Sort: "added_on", Order: "desc"})
	require.NoError(t, err)
	require.Equal(t, before+1, hits.Load())
}

func TestBulkActionValidatesSelection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be sent for invalid input")
	}))

	ctx := context.Background()

	err := client.BulkAction(ctx, 1, BulkActionRequest{Action: "pause"})
	require.Error(t, err)

	err = client.BulkAction(ctx, 1, BulkActionRequest{
		Action:    "pause",
		Hashes:    []string{"abc"},
		SelectAll: true,
	})
	require.Error(t, err)
}

func TestBulkActionSendsDescriptor(t *testing.T) {
	var got BulkActionRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/instances/7/torrents/bulk-action", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	err := client.BulkAction(context.Background(), 7, BulkActionRequest{
		Action:        "resume",
		SelectAll:     true,
		Search:        "ubuntu",
		ExcludeHashes: []string{"skip1", "skip2"},
	})
	require.NoError(t, err)

	require.Equal(t, "resume", got.Action)
	require.True(t, got.SelectAll)
	require.Equal(t, "ubuntu", got.Search)
	require.Equal(t, []string{"skip1", "skip2"}, got.ExcludeHashes)
	require.Empty(t, got.Hashes)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(TorrentResponse{Total: 1})
	}))

	resp, err := client.ListTorrents(context.Background(), ListRequest{InstanceID: 1, Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, int32(3), hits.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.ListTorrents(context.Background(), ListRequest{InstanceID: 1, Limit: 100})
	require.ErrorIs(t, err, ErrRequestRejected)
	require.Equal(t, int32(1), hits.Load())
}

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr error
	}{
		{name: "current version passes", version: "1.4.0"},
		{name: "newer version passes", version: "v2.0.1"},
		{name: "older version rejected", version: "1.3.9", wantErr: ErrBackendTooOld},
		{name: "dev build passes", version: "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/version", r.URL.Path)
				json.NewEncoder(w).Encode(VersionResponse{Version: tt.version})
			}))

			err := client.CheckCompatibility(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
