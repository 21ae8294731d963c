// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"fmt"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

func formatSpeed(bytesPerSec int64) string {
	if bytesPerSec <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytesPerSec)) + "/s"
}

func formatProgress(progress float64) string {
	return fmt.Sprintf("%.1f%%", progress*100)
}

func formatRatio(ratio float64) string {
	if ratio < 0 {
		return "∞"
	}
	return fmt.Sprintf("%.2f", ratio)
}

func formatETA(seconds int64) string {
	// qBittorrent reports 8640000 for unknown
	if seconds <= 0 || seconds >= 8640000 {
		return "∞"
	}
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

// formatState maps qBittorrent's states onto the short labels the list shows
func formatState(state qbt.TorrentState) (string, lipgloss.Style) {
	switch state {
	case qbt.TorrentStateDownloading, qbt.TorrentStateForcedDl, qbt.TorrentStateMetaDl:
		return "downloading", stateDownloading
	case qbt.TorrentStateUploading, qbt.TorrentStateForcedUp:
		return "seeding", stateSeeding
	case qbt.TorrentStatePausedDl, qbt.TorrentStateStoppedDl:
		return "paused", statePaused
	case qbt.TorrentStatePausedUp, qbt.TorrentStateStoppedUp:
		return "completed", statePaused
	case qbt.TorrentStateStalledDl, qbt.TorrentStateStalledUp:
		return "stalled", stateStalled
	case qbt.TorrentStateError, qbt.TorrentStateMissingFiles:
		return "error", stateErrored
	case qbt.TorrentStateQueuedDl, qbt.TorrentStateQueuedUp:
		return "queued", statePaused
	case qbt.TorrentStateCheckingDl, qbt.TorrentStateCheckingUp, qbt.TorrentStateCheckingResumeData:
		return "checking", stateStalled
	default:
		return string(state), rowStyle
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s + strings.Repeat(" ", width-len(runes))
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
