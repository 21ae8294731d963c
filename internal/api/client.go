// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/avast/retry-go"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/qui-tui/internal/buildinfo"
)

// MinBackendVersion is the oldest backend this client understands.
// Older backends lack the selectAll/excludeHashes bulk action contract.
const MinBackendVersion = "1.4.0"

var (
	ErrBackendTooOld   = errors.New("backend version too old")
	ErrRequestRejected = errors.New("request rejected by backend")
)

// Client talks to one qui backend over HTTP.
// It is the remote list source for the list engine: paginated, filterable,
// sortable torrent lists plus bulk actions.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Short-TTL page cache keyed by query key + page so rapid re-renders of
	// the same window do not refetch.
	cache    *ristretto.Cache
	cacheTTL time.Duration
}

// ClientOptions configures a backend client
type ClientOptions struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NewClient creates a client for the given backend
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 2 * time.Second
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 26, // 64 MiB of cached pages
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      cache,
		cacheTTL:   opts.CacheTTL,
	}, nil
}

// Close releases the response cache
func (c *Client) Close() {
	c.cache.Close()
}

// CheckCompatibility probes the backend version and rejects backends older
// than MinBackendVersion
func (c *Client) CheckCompatibility(ctx context.Context) error {
	body, err := c.get(ctx, "/api/version", nil)
	if err != nil {
		return fmt.Errorf("failed to probe backend version: %w", err)
	}

	var resp VersionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode version response: %w", err)
	}

	version, err := semver.NewVersion(strings.TrimPrefix(resp.Version, "v"))
	if err != nil {
		// Dev builds report non-semver versions; let them through
		log.Debug().Str("version", resp.Version).Msg("Backend reports non-semver version, skipping check")
		return nil
	}

	minVersion := semver.MustParse(MinBackendVersion)
	if version.LessThan(minVersion) {
		return fmt.Errorf("%w: backend is %s, need at least %s", ErrBackendTooOld, resp.Version, MinBackendVersion)
	}

	log.Debug().Str("version", resp.Version).Msg("Backend version compatible")
	return nil
}

// ListTorrents fetches one page of torrents with filters, search, sorting and
// pagination. Results are cached briefly per (query key, page).
func (c *Client) ListTorrents(ctx context.Context, req ListRequest) (*TorrentResponse, error) {
	cacheKey := c.listCacheKey(req)
	if cached, found := c.cache.Get(cacheKey); found {
		if resp, ok := cached.(*TorrentResponse); ok {
			log.Debug().Str("cacheKey", cacheKey).Msg("Torrent list served from cache")
			return resp, nil
		}
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("limit", strconv.Itoa(req.Limit))
	if req.Sort != "" {
		params.Set("sort", req.Sort)
	}
	if req.Order != "" {
		params.Set("order", req.Order)
	}
	if req.Search != "" {
		params.Set("search", req.Search)
	}
	if !req.Filters.IsZero() {
		filtersJSON, err := json.Marshal(req.Filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		params.Set("filters", string(filtersJSON))
	}

	path := fmt.Sprintf("/api/instances/%d/torrents", req.InstanceID)
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var resp TorrentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode torrent list: %w", err)
	}

	c.cache.SetWithTTL(cacheKey, &resp, int64(len(body)), c.cacheTTL)

	log.Debug().
		Int("instanceID", req.InstanceID).
		Int("page", req.Page).
		Int("limit", req.Limit).
		Int("count", len(resp.Torrents)).
		Int("total", resp.Total).
		Bool("hasMore", resp.HasMore).
		Msg("Fetched torrent list page")

	return &resp, nil
}

// BulkAction performs a bulk operation on torrents. The backend expands a
// selectAll request into the full matching set; the client never needs to
// enumerate it.
func (c *Client) BulkAction(ctx context.Context, instanceID int, req BulkActionRequest) error {
	if !req.SelectAll && len(req.Hashes) == 0 {
		return errors.New("bulk action requires hashes or selectAll")
	}
	if req.SelectAll && len(req.Hashes) > 0 {
		return errors.New("bulk action cannot specify both hashes and selectAll")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode bulk action: %w", err)
	}

	path := fmt.Sprintf("/api/instances/%d/torrents/bulk-action", instanceID)
	if _, err := c.post(ctx, path, payload); err != nil {
		return err
	}

	// Drop cached pages for this instance so the next list reflects the action
	c.cache.Clear()

	log.Debug().
		Int("instanceID", instanceID).
		Str("action", req.Action).
		Int("hashes", len(req.Hashes)).
		Bool("selectAll", req.SelectAll).
		Int("excluded", len(req.ExcludeHashes)).
		Msg("Bulk action completed")

	return nil
}

func (c *Client) listCacheKey(req ListRequest) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(req.InstanceID))
	sb.WriteByte('|')
	sb.WriteString(req.Search)
	sb.WriteByte('|')
	sb.WriteString(req.Sort)
	sb.WriteByte('|')
	sb.WriteString(req.Order)
	sb.WriteByte('|')
	sb.WriteString(strings.Join(req.Filters.Status, ","))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(req.Filters.Categories, ","))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(req.Filters.Tags, ","))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(req.Filters.Trackers, ","))
	sb.WriteByte('|')
	sb.WriteString(req.Filters.Expr)
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(req.Page))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(req.Limit))
	return sb.String()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body []byte
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			c.setHeaders(req)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err = c.readResponse(resp)
			return err
		},
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	return body, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + path

	var body []byte
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			c.setHeaders(req)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err = c.readResponse(resp)
			return err
		},
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}

	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func (c *Client) readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("backend error: %s", resp.Status)
	case resp.StatusCode >= http.StatusBadRequest:
		// Client errors won't get better on retry
		return nil, retry.Unrecoverable(fmt.Errorf("%w: %s", ErrRequestRejected, resp.Status))
	}

	return body, nil
}
