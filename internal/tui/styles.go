// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import "github.com/charmbracelet/lipgloss"

// Color constants
const (
	colorAccent   = "12"
	colorMuted    = "8"
	colorError    = "9"
	colorGreen    = "10"
	colorYellow   = "11"
	colorSelected = "6"
	colorBlack    = "0"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent))

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorMuted)).
				Underline(true)

	rowStyle = lipgloss.NewStyle()

	focusedRowStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(colorSelected)).
			Foreground(lipgloss.Color(colorBlack))

	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorAccent)).
				Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)).
			Bold(true)

	selectionBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorYellow)).
				Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorMuted)).
			Padding(0, 1)

	cardFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(colorAccent)).
				Padding(0, 1)

	stateDownloading = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	stateSeeding     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen))
	statePaused      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	stateErrored     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	stateStalled     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow))
)
