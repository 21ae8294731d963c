// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"fmt"
	"sync"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
)

// ExprFilter is a compiled boolean expression over torrent fields, applied
// to loaded rows locally. The expression language sees the torrent struct
// directly, e.g. `Ratio > 2.0 && Category == "movies"`.
type ExprFilter struct {
	source  string
	program *vm.Program
}

// CompileExpr compiles a filter expression. The result is safe for reuse
// across evaluations.
func CompileExpr(source string) (*ExprFilter, error) {
	program, err := expr.Compile(source, expr.Env(qbt.Torrent{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}
	return &ExprFilter{source: source, program: program}, nil
}

// Source returns the expression text
func (f *ExprFilter) Source() string { return f.source }

// Match evaluates the expression against one torrent. Evaluation errors
// count as no match.
func (f *ExprFilter) Match(t qbt.Torrent) bool {
	out, err := expr.Run(f.program, t)
	if err != nil {
		log.Debug().Err(err).Str("expr", f.source).Msg("Expression evaluation failed")
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

// Apply filters rows through the expression
func (f *ExprFilter) Apply(torrents []qbt.Torrent) []qbt.Torrent {
	filtered := make([]qbt.Torrent, 0, len(torrents))
	for _, t := range torrents {
		if f.Match(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// ExprCache caches compiled expressions by source text so re-applying a
// saved filter does not recompile it.
type ExprCache struct {
	mu       sync.Mutex
	programs map[string]*ExprFilter
}

// NewExprCache creates an empty expression cache
func NewExprCache() *ExprCache {
	return &ExprCache{programs: make(map[string]*ExprFilter)}
}

// Get compiles the expression or returns the cached program
func (c *ExprCache) Get(source string) (*ExprFilter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.programs[source]; ok {
		return f, nil
	}

	f, err := CompileExpr(source)
	if err != nil {
		return nil, err
	}
	c.programs[source] = f
	return f, nil
}
