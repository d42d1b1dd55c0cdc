// Package query is the read-only layer over the store: symbol lookups,
// relation queries, live definition snippets, and bounded call-graph
// traversal.
package query

import (
	"fmt"
	"strings"

	"codescope/internal/entity"
	"codescope/internal/fsgate"
	"codescope/internal/store"
)

// Engine answers read queries against one index.
type Engine struct {
	store *store.Store
	gate  *fsgate.Gate
}

// New builds a query engine. A nil gate is treated as permissive.
func New(s *store.Store, g *fsgate.Gate) *Engine {
	if g == nil {
		g = fsgate.Permissive()
	}
	return &Engine{store: s, gate: g}
}

// ListFiles returns every registered file.
func (e *Engine) ListFiles() ([]*store.File, error) {
	return e.store.ListFiles()
}

// ListSymbols returns symbols matching the filter.
func (e *Engine) ListSymbols(f store.SymbolFilter) ([]*entity.Symbol, error) {
	return e.store.ListSymbols(f)
}

// GetSymbolByID returns the symbol, or nil if unknown.
func (e *Engine) GetSymbolByID(id string) (*entity.Symbol, error) {
	return e.store.GetSymbolByID(id)
}

// RelationsForSymbol returns relations touching the symbol. kind filters when
// non-empty; direction is store.DirectionSource/Target/Both ("" means both).
func (e *Engine) RelationsForSymbol(id, kind, direction string) ([]*store.StoredRelation, error) {
	return e.store.RelationsForSymbol(id, kind, direction)
}

// Definition is a symbol with the current source text of its declaration.
type Definition struct {
	Symbol    *entity.Symbol `json:"symbol"`
	Snippet   string         `json:"snippet"`
	StartLine int            `json:"startLine"`
	EndLine   int            `json:"endLine"`
}

// GetDefinition returns the symbol's declaration text with no context pad.
func (e *Engine) GetDefinition(id string) (*Definition, error) {
	return e.GetDefinitionSnippet(id, 0)
}

// GetDefinitionSnippet re-reads the owning file's current content and slices
// it by the symbol's recorded line range, padded by contextLines on each
// side. This is a live re-read, not a stored snapshot: the text can drift
// from what was indexed. Returns nil when the symbol or its location is
// missing.
func (e *Engine) GetDefinitionSnippet(id string, contextLines int) (*Definition, error) {
	sym, err := e.store.GetSymbolByID(id)
	if err != nil {
		return nil, err
	}
	if sym == nil || sym.Location.StartLine < 1 {
		return nil, nil
	}

	content, err := e.gate.ReadFile(sym.FilePath)
	if err != nil {
		return nil, fmt.Errorf("definition for %s: %w", id, err)
	}
	lines := strings.Split(content, "\n")

	start := sym.Location.StartLine - 1 - contextLines
	if start < 0 {
		start = 0
	}
	end := sym.Location.EndLine + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) {
		return nil, nil
	}

	return &Definition{
		Symbol:    sym,
		Snippet:   strings.Join(lines[start:end], "\n"),
		StartLine: start + 1,
		EndLine:   end,
	}, nil
}
