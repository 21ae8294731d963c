// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"
)

func normalizeForSearch(text string) string {
	// Replace common torrent separators with spaces
	replacers := []string{".", "_", "-", "[", "]", "(", ")", "{", "}"}
	normalized := strings.ToLower(text)
	for _, r := range replacers {
		normalized = strings.ReplaceAll(normalized, r, " ")
	}
	// Collapse multiple spaces
	return strings.Join(strings.Fields(normalized), " ")
}

// Refine filters already-loaded rows by a quick-filter query using the same
// matcher ladder the backend applies to the full dataset: exact substring,
// separator-normalized, all-words, then scored fuzzy matching on the name.
// Queries containing glob metacharacters switch to glob matching. Purely
// local; the query key and backend search are untouched.
func Refine(torrents []qbt.Torrent, query string) []qbt.Torrent {
	if query == "" {
		return torrents
	}

	// Check if the query contains glob patterns
	if strings.ContainsAny(query, "*?[") {
		return refineByGlob(torrents, query)
	}

	type torrentMatch struct {
		torrent qbt.Torrent
		score   int
	}

	var matches []torrentMatch
	queryLower := strings.ToLower(query)
	queryNormalized := normalizeForSearch(query)
	queryWords := strings.Fields(queryNormalized)

	for _, torrent := range torrents {
		// Method 1: Exact substring match (highest priority)
		nameLower := strings.ToLower(torrent.Name)
		categoryLower := strings.ToLower(torrent.Category)
		tagsLower := strings.ToLower(torrent.Tags)

		if strings.Contains(nameLower, queryLower) ||
			strings.Contains(categoryLower, queryLower) ||
			strings.Contains(tagsLower, queryLower) {
			matches = append(matches, torrentMatch{torrent: torrent, score: 0})
			continue
		}

		// Method 2: Normalized match (handles dots, underscores, etc)
		nameNormalized := normalizeForSearch(torrent.Name)
		categoryNormalized := normalizeForSearch(torrent.Category)
		tagsNormalized := normalizeForSearch(torrent.Tags)

		if strings.Contains(nameNormalized, queryNormalized) ||
			strings.Contains(categoryNormalized, queryNormalized) ||
			strings.Contains(tagsNormalized, queryNormalized) {
			matches = append(matches, torrentMatch{torrent: torrent, score: 1})
			continue
		}

		// Method 3: All words present (for multi-word queries)
		if len(queryWords) > 1 {
			allFieldsNormalized := fmt.Sprintf("%s %s %s", nameNormalized, categoryNormalized, tagsNormalized)
			allWordsFound := true
			for _, word := range queryWords {
				if !strings.Contains(allFieldsNormalized, word) {
					allWordsFound = false
					break
				}
			}
			if allWordsFound {
				matches = append(matches, torrentMatch{torrent: torrent, score: 2})
				continue
			}
		}

		// Method 4: Fuzzy match only on the normalized name (not the full
		// text) so random letter combinations across fields don't match
		if fuzzy.MatchNormalizedFold(queryNormalized, nameNormalized) {
			score := fuzzy.RankMatchNormalizedFold(queryNormalized, nameNormalized)
			// Only accept good fuzzy matches
			if score < 10 {
				matches = append(matches, torrentMatch{torrent: torrent, score: 3 + score})
			}
		}
	}

	// Sort by score (lower is better)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score < matches[j].score
	})

	filtered := make([]qbt.Torrent, len(matches))
	for i, match := range matches {
		filtered[i] = match.torrent
	}

	log.Debug().
		Str("query", query).
		Int("input", len(torrents)).
		Int("matched", len(filtered)).
		Msg("Local refine completed")

	return filtered
}

// refineByGlob filters loaded rows using glob pattern matching against name,
// category and individual tags.
func refineByGlob(torrents []qbt.Torrent, pattern string) []qbt.Torrent {
	var filtered []qbt.Torrent

	patternLower := strings.ToLower(pattern)

	for _, torrent := range torrents {
		nameLower := strings.ToLower(torrent.Name)

		matched, err := filepath.Match(patternLower, nameLower)
		if err != nil {
			log.Debug().Str("pattern", pattern).Err(err).Msg("Invalid glob pattern")
			return torrents
		}
		if matched {
			filtered = append(filtered, torrent)
			continue
		}

		if torrent.Category != "" {
			if matched, _ := filepath.Match(patternLower, strings.ToLower(torrent.Category)); matched {
				filtered = append(filtered, torrent)
				continue
			}
		}

		if torrent.Tags != "" {
			for _, tag := range strings.Split(strings.ToLower(torrent.Tags), ",") {
				if matched, _ := filepath.Match(patternLower, strings.TrimSpace(tag)); matched {
					filtered = append(filtered, torrent)
					break
				}
			}
		}
	}

	return filtered
}
