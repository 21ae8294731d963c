// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

const redactedPlaceholder = "••••••••"

// RedactString replaces a secret with a fixed placeholder for display
func RedactString(s string) string {
	if s == "" {
		return ""
	}
	return redactedPlaceholder
}

// IsRedactedString reports whether a value is the display placeholder rather
// than a real secret, so round-tripped payloads don't overwrite stored
// secrets with the placeholder.
func IsRedactedString(s string) bool {
	return s == redactedPlaceholder
}
