// Package entity defines the symbol, relation, and diagnostic values shared
// by all language walkers, and the deterministic identity scheme that makes
// re-indexing an unchanged file idempotent.
package entity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"codescope/internal/lang"
)

// Kind classifies a symbol declaration site.
type Kind string

const (
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindClass       Kind = "class"
	KindStruct      Kind = "struct"
	KindInterface   Kind = "interface"
	KindGetter      Kind = "getter"
	KindSetter      Kind = "setter"
)

// Relation kinds. References is reserved: no walker emits it yet.
const (
	RelBelongsTo  = "belongs_to"
	RelCalls      = "calls"
	RelReferences = "references"
)

// Diagnostic severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Location is a source range with 1-based lines and 0-based columns.
type Location struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// Detail carries the syntactic signature breakdown of a symbol.
type Detail struct {
	Parameters []string `json:"parameters,omitempty"`
	ReturnType string   `json:"returnType,omitempty"`
	Extends    string   `json:"extends,omitempty"`
	Implements []string `json:"implements,omitempty"`
	Bases      []string `json:"bases,omitempty"`
}

// Symbol is one declaration site extracted from source.
type Symbol struct {
	ID         string         `json:"id"`
	FilePath   string         `json:"filePath"`
	Language   lang.Language  `json:"language"`
	Name       string         `json:"name"`
	Kind       Kind           `json:"kind"`
	Signature  string         `json:"signature"`
	Location   Location       `json:"location"`
	Detail     Detail         `json:"detail"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Relation is a directed typed edge between two symbols.
type Relation struct {
	SourceID   string         `json:"sourceId"`
	TargetID   string         `json:"targetId"`
	Kind       string         `json:"kind"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Diagnostic is a non-fatal observation surfaced during parsing.
type Diagnostic struct {
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Location *Location `json:"location,omitempty"`
}

// SymbolID computes the stable content-addressed id for a declaration:
// {filePath}#{name}:{startLine}:{sha1(filePath|name|kind|startLine|startColumn)[:12]}.
// The id depends only on file, name, kind, and position, so re-extracting an
// unchanged file reproduces it exactly.
func SymbolID(filePath, name string, kind Kind, loc Location) string {
	h := sha1.Sum(fmt.Appendf(nil, "%s|%s|%s|%d|%d", filePath, name, kind, loc.StartLine, loc.StartColumn))
	return fmt.Sprintf("%s#%s:%d:%s", filePath, name, loc.StartLine, hex.EncodeToString(h[:])[:12])
}

// NewSymbol builds a Symbol with its derived id attached.
func NewSymbol(filePath string, language lang.Language, name string, kind Kind, signature string, loc Location, detail Detail, props map[string]any) *Symbol {
	return &Symbol{
		ID:         SymbolID(filePath, name, kind, loc),
		FilePath:   filePath,
		Language:   language,
		Name:       name,
		Kind:       kind,
		Signature:  signature,
		Location:   loc,
		Detail:     detail,
		Properties: props,
	}
}

// NewRelation builds a Relation. Plain value constructor, no derived identity.
func NewRelation(sourceID, targetID, kind string, props map[string]any) *Relation {
	return &Relation{SourceID: sourceID, TargetID: targetID, Kind: kind, Properties: props}
}

// NewDiagnostic builds a Diagnostic with an optional location.
func NewDiagnostic(severity, message string, loc *Location) *Diagnostic {
	return &Diagnostic{Severity: severity, Message: message, Location: loc}
}

// RelationsForSymbol filters relations touching the given symbol id, for
// embedding into that symbol's metadata blob.
func RelationsForSymbol(id string, relations []*Relation) []*Relation {
	var out []*Relation
	for _, r := range relations {
		if r.SourceID == id || r.TargetID == id {
			out = append(out, r)
		}
	}
	return out
}
