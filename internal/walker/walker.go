// Package walker turns source buffers into symbols, relations, and
// diagnostics. One walker per language family, behind a closed interface and
// a static registry keyed by language tag.
package walker

import (
	"fmt"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codescope/internal/entity"
	"codescope/internal/lang"
	"codescope/internal/parser"
)

// Result is the complete output of extracting one source buffer.
type Result struct {
	Symbols     []*entity.Symbol
	Relations   []*entity.Relation
	Diagnostics []*entity.Diagnostic
}

// LanguageWalker extracts symbols from source text. Walkers are pure: they
// never touch storage and never fail — problems surface as diagnostics.
type LanguageWalker interface {
	Languages() []lang.Language
	Extract(source []byte, filePath string, l lang.Language) *Result
}

var registry = map[lang.Language]LanguageWalker{}

func register(w LanguageWalker) {
	for _, l := range w.Languages() {
		registry[l] = w
	}
}

func init() {
	register(&goWalker{})
	register(&pythonWalker{})
	register(&javaWalker{})
	register(&jsWalker{})
}

// Supported reports whether a walker is registered for l.
func Supported(l lang.Language) bool {
	_, ok := registry[l]
	return ok
}

// Extract dispatches a source buffer to the walker registered for l. An
// unregistered language yields an empty result with a single warning
// diagnostic; this never returns an error.
func Extract(source []byte, filePath string, l lang.Language) *Result {
	w, ok := registry[l]
	if !ok {
		return unsupported(l)
	}
	return w.Extract(source, filePath, l)
}

// ExtractFile reads filePath as UTF-8 text and dispatches on l.
func ExtractFile(filePath string, l lang.Language) (*Result, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return Extract(source, filePath, l), nil
}

func unsupported(l lang.Language) *Result {
	return &Result{
		Diagnostics: []*entity.Diagnostic{
			entity.NewDiagnostic(entity.SeverityWarning, fmt.Sprintf("unsupported language: %s", l), nil),
		},
	}
}

// supports reports whether l is in the walker's own supported set.
func supports(w LanguageWalker, l lang.Language) bool {
	for _, have := range w.Languages() {
		if have == l {
			return true
		}
	}
	return false
}

// parseSource parses and runs the shared error-diagnostic policy: a nil tree
// yields an error diagnostic and no tree; a tree with a syntax error yields
// the tree plus an error diagnostic at the first error node (extraction
// continues on the partial tree).
func parseSource(l lang.Language, source []byte, res *Result) *tree_sitter.Tree {
	tree, err := parser.Parse(l, source)
	if err != nil || tree == nil {
		res.Diagnostics = append(res.Diagnostics,
			entity.NewDiagnostic(entity.SeverityError, fmt.Sprintf("parser failed for %s", l), nil))
		return nil
	}
	root := tree.RootNode()
	if root.HasError() {
		loc := nodeLocation(root)
		if errNode := parser.FirstErrorNode(root); errNode != nil {
			loc = nodeLocation(errNode)
		}
		res.Diagnostics = append(res.Diagnostics,
			entity.NewDiagnostic(entity.SeverityError, fmt.Sprintf("syntax error in %s source", l), &loc))
	}
	return tree
}

// nodeLocation converts a node's range to a 1-based-line Location.
func nodeLocation(n *tree_sitter.Node) entity.Location {
	start := n.StartPosition()
	end := n.EndPosition()
	return entity.Location{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column),
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column),
	}
}

// splitParams comma-splits a parameter-list text, trimming parens and space.
func splitParams(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// declHeader slices the declaration text from the node start to the start of
// its body, giving a one-line signature like
// "func (p *Person) Greet(n int) string".
func declHeader(n *tree_sitter.Node, source []byte) string {
	end := n.EndByte()
	if body := n.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	header := strings.TrimSpace(string(source[n.StartByte():end]))
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = strings.TrimRight(header[:i], " \t{")
	}
	return strings.TrimSpace(header)
}

// hasChildToken reports whether the node has an anonymous child token with
// the given text kind (e.g. "async", "static", "get").
func hasChildToken(n *tree_sitter.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil && c.Kind() == kind {
			return true
		}
	}
	return false
}

// callTargets walks a declaration body and emits calls relations for each
// simple-identifier call site that resolves against the file-local symbol
// table. First-declared-wins, same file only — no cross-file inference.
func callTargets(body *tree_sitter.Node, source []byte, callKinds map[string]bool, nameField string, byName map[string]*entity.Symbol, caller *entity.Symbol, res *Result) {
	if body == nil || caller == nil {
		return
	}
	parser.Walk(body, func(n *tree_sitter.Node) bool {
		if !callKinds[n.Kind()] {
			return true
		}
		fn := n.ChildByFieldName(nameField)
		if fn == nil || fn.Kind() != "identifier" {
			return true
		}
		name := parser.NodeText(fn, source)
		target, ok := byName[name]
		if !ok {
			return true
		}
		res.Relations = append(res.Relations, entity.NewRelation(caller.ID, target.ID, entity.RelCalls, map[string]any{
			"line": int(n.StartPosition().Row) + 1,
		}))
		return true
	})
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
