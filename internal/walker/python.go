package walker

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codescope/internal/entity"
	"codescope/internal/lang"
	"codescope/internal/parser"
)

// pythonWalker extracts classes, functions, methods, and decorators.
// Method ownership is resolved from AST ancestry, never by name.
type pythonWalker struct{}

func (w *pythonWalker) Languages() []lang.Language {
	return []lang.Language{lang.Python}
}

func (w *pythonWalker) Extract(source []byte, filePath string, l lang.Language) *Result {
	res := &Result{}
	if !supports(w, l) {
		return unsupported(l)
	}
	tree := parseSource(l, source, res)
	if tree == nil {
		return res
	}
	defer tree.Close()
	root := tree.RootNode()

	type funcDecl struct {
		node *tree_sitter.Node
		sym  *entity.Symbol
	}
	var decls []funcDecl
	byName := map[string]*entity.Symbol{}
	record := func(n *tree_sitter.Node, sym *entity.Symbol) {
		if sym == nil {
			return
		}
		decls = append(decls, funcDecl{node: n, sym: sym})
		if _, seen := byName[sym.Name]; !seen {
			byName[sym.Name] = sym
		}
	}

	parser.Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "class_definition":
			w.extractClass(n, source, filePath, record, res)
			return false
		case "function_definition":
			sym := w.extractFunc(n, source, filePath, nil, res)
			record(n, sym)
			return false
		}
		return true
	})

	callKinds := toSet(lang.ForLanguage(l).CallNodeTypes)
	for _, d := range decls {
		callTargets(d.node.ChildByFieldName("body"), source, callKinds, "function", byName, d.sym, res)
	}

	return res
}

func (w *pythonWalker) extractClass(n *tree_sitter.Node, source []byte, filePath string, record func(*tree_sitter.Node, *entity.Symbol), res *Result) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, source)

	detail := entity.Detail{}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		detail.Bases = splitParams(parser.NodeText(supers, source))
	}

	props := map[string]any{}
	if decorators := hoistedDecorators(n, source); len(decorators) > 0 {
		props["decorators"] = decorators
	}

	classSym := entity.NewSymbol(filePath, lang.Python, name, entity.KindClass,
		declHeader(n, source), nodeLocation(n), detail, props)
	res.Symbols = append(res.Symbols, classSym)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil {
			continue
		}
		target := child
		if child.Kind() == "decorated_definition" {
			target = child.ChildByFieldName("definition")
			if target == nil {
				continue
			}
		}
		if target.Kind() != "function_definition" {
			continue
		}
		methodSym := w.extractFunc(target, source, filePath, classSym, res)
		record(target, methodSym)
	}
}

// extractFunc extracts a function or, when owner is non-nil, a method of that
// class (emitting the belongs_to relation).
func (w *pythonWalker) extractFunc(n *tree_sitter.Node, source []byte, filePath string, owner *entity.Symbol, res *Result) *entity.Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := parser.NodeText(nameNode, source)

	detail := entity.Detail{}
	if params := n.ChildByFieldName("parameters"); params != nil {
		detail.Parameters = splitParams(parser.NodeText(params, source))
	}
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		detail.ReturnType = parser.NodeText(rt, source)
	}

	props := map[string]any{}
	if hasChildToken(n, "async") {
		props["async"] = true
	}
	decorators := hoistedDecorators(n, source)
	if len(decorators) > 0 {
		props["decorators"] = decorators
	}

	kind := entity.KindFunction
	role := ""
	if owner != nil {
		kind = entity.KindMethod
		role = "method"
		switch {
		case name == "__init__":
			kind = entity.KindConstructor
			role = "constructor"
		case hasDecorator(decorators, "property"):
			kind = entity.KindGetter
			role = "member"
		case hasSetterDecorator(decorators):
			kind = entity.KindSetter
			role = "member"
		}
	}

	sym := entity.NewSymbol(filePath, lang.Python, name, kind, declHeader(n, source),
		nodeLocation(n), detail, props)
	res.Symbols = append(res.Symbols, sym)

	if owner != nil {
		res.Relations = append(res.Relations, entity.NewRelation(sym.ID, owner.ID, entity.RelBelongsTo, map[string]any{
			"role": role,
		}))
	}
	return sym
}

// hoistedDecorators lifts decorator text from a wrapping decorated_definition
// onto the declaration it annotates.
func hoistedDecorators(n *tree_sitter.Node, source []byte) []string {
	parent := n.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return nil
	}
	var out []string
	for i := uint(0); i < parent.ChildCount(); i++ {
		c := parent.Child(i)
		if c != nil && c.Kind() == "decorator" {
			out = append(out, strings.TrimPrefix(parser.NodeText(c, source), "@"))
		}
	}
	return out
}

func hasDecorator(decorators []string, name string) bool {
	for _, d := range decorators {
		if d == name {
			return true
		}
	}
	return false
}

func hasSetterDecorator(decorators []string) bool {
	for _, d := range decorators {
		if strings.HasSuffix(d, ".setter") {
			return true
		}
	}
	return false
}
