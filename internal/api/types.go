// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	qbt "github.com/autobrr/go-qbittorrent"
)

// FilterOptions represents the sidebar filter selections sent with a list request
type FilterOptions struct {
	Status     []string `json:"status,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Trackers   []string `json:"trackers,omitempty"`
	Expr       string   `json:"expr,omitempty"`
}

// IsZero reports whether no filter is active
func (f FilterOptions) IsZero() bool {
	return len(f.Status) == 0 && len(f.Categories) == 0 && len(f.Tags) == 0 &&
		len(f.Trackers) == 0 && f.Expr == ""
}

// ListRequest describes one page of the torrent list endpoint
type ListRequest struct {
	InstanceID int
	Page       int
	Limit      int
	Sort       string
	Order      string
	Search     string
	Filters    FilterOptions
}

// TorrentResponse represents a response containing torrents with stats
type TorrentResponse struct {
	Torrents   []qbt.Torrent           `json:"torrents"`
	Total      int                     `json:"total"`
	Stats      *TorrentStats           `json:"stats,omitempty"`
	Counts     *TorrentCounts          `json:"counts,omitempty"`     // Include counts for sidebar
	Categories map[string]qbt.Category `json:"categories,omitempty"` // Include categories for sidebar
	Tags       []string                `json:"tags,omitempty"`       // Include tags for sidebar
	HasMore    bool                    `json:"hasMore"`              // Whether more pages are available
}

// TorrentStats represents aggregated torrent statistics
type TorrentStats struct {
	Total              int `json:"total"`
	Downloading        int `json:"downloading"`
	Seeding            int `json:"seeding"`
	Paused             int `json:"paused"`
	Error              int `json:"error"`
	Checking           int `json:"checking"`
	TotalDownloadSpeed int `json:"totalDownloadSpeed"`
	TotalUploadSpeed   int `json:"totalUploadSpeed"`
}

// TorrentCounts represents counts for the filtering sidebar
type TorrentCounts struct {
	Status     map[string]int `json:"status"`
	Categories map[string]int `json:"categories"`
	Tags       map[string]int `json:"tags"`
	Trackers   map[string]int `json:"trackers"`
	Total      int            `json:"total"`
}

// BulkActionRequest is the bulk action payload accepted by the backend.
// Either Hashes is set, or SelectAll with the filter context the backend
// re-resolves into the matching set at execution time.
type BulkActionRequest struct {
	Action        string         `json:"action"`
	Hashes        []string       `json:"hashes,omitempty"`
	SelectAll     bool           `json:"selectAll,omitempty"`
	Filters       *FilterOptions `json:"filters,omitempty"`
	Search        string         `json:"search,omitempty"`
	ExcludeHashes []string       `json:"excludeHashes,omitempty"`
	DeleteFiles   bool           `json:"deleteFiles,omitempty"`
}

// VersionResponse is the backend version probe payload
type VersionResponse struct {
	Version string `json:"version"`
}
