// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"testing"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/stretchr/testify/require"
)

func TestFormatETA(t *testing.T) {
	require.Equal(t, "∞", formatETA(0))
	require.Equal(t, "∞", formatETA(8640000))
	require.Equal(t, "45s", formatETA(45))
	require.Equal(t, "5m", formatETA(300))
	require.Equal(t, "2h30m", formatETA(9000))
	require.Equal(t, "1d2h", formatETA(93600))
}

func TestFormatSpeed(t *testing.T) {
	require.Equal(t, "-", formatSpeed(0))
	require.Equal(t, "1.0 MiB/s", formatSpeed(1<<20))
}

func TestFormatState(t *testing.T) {
	label, _ := formatState(qbt.TorrentStateDownloading)
	require.Equal(t, "downloading", label)

	label, _ = formatState(qbt.TorrentStateStalledDl)
	require.Equal(t, "stalled", label)

	label, _ = formatState(qbt.TorrentStateForcedUp)
	require.Equal(t, "seeding", label)

	// Unknown states pass through raw
	label, _ = formatState(qbt.TorrentState("weird"))
	require.Equal(t, "weird", label)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc  ", truncate("abc", 5))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
	require.Equal(t, "", truncate("abc", 0))
}
