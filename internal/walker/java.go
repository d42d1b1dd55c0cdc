package walker

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codescope/internal/entity"
	"codescope/internal/lang"
	"codescope/internal/parser"
)

// javaWalker extracts classes, interfaces, enums, records, and their members.
// Ownership comes from the enclosing type node, never from name lookup.
type javaWalker struct{}

func (w *javaWalker) Languages() []lang.Language {
	return []lang.Language{lang.Java}
}

func (w *javaWalker) Extract(source []byte, filePath string, l lang.Language) *Result {
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
	spec := lang.ForLanguage(l)
	typeKinds := toSet(spec.TypeNodeTypes)

	type funcDecl struct {
		node *tree_sitter.Node
		sym  *entity.Symbol
	}
	var decls []funcDecl
	byName := map[string]*entity.Symbol{}

	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if !typeKinds[n.Kind()] {
			return true
		}
		typeSym := w.extractType(n, source, filePath, res)
		if typeSym == nil {
			return false
		}
		body := n.ChildByFieldName("body")
		if body == nil {
			return false
		}
		for i := uint(0); i < body.ChildCount(); i++ {
			member := body.Child(i)
			if member == nil {
				continue
			}
			switch member.Kind() {
			case "method_declaration", "constructor_declaration":
				sym := w.extractMember(member, source, filePath, typeSym, res)
				if sym != nil {
					decls = append(decls, funcDecl{node: member, sym: sym})
					if _, seen := byName[sym.Name]; !seen {
						byName[sym.Name] = sym
					}
				}
			}
		}
		// Descend for nested types.
		return true
	})

	callKinds := toSet(spec.CallNodeTypes)
	for _, d := range decls {
		callTargets(d.node.ChildByFieldName("body"), source, callKinds, "name", byName, d.sym, res)
	}

	return res
}

func (w *javaWalker) extractType(n *tree_sitter.Node, source []byte, filePath string, res *Result) *entity.Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := parser.NodeText(nameNode, source)

	kind := entity.KindClass
	if n.Kind() == "interface_declaration" {
		kind = entity.KindInterface
	}

	detail := entity.Detail{}
	if sup := n.ChildByFieldName("superclass"); sup != nil {
		detail.Extends = strings.TrimSpace(strings.TrimPrefix(parser.NodeText(sup, source), "extends"))
	}
	if ifaces := n.ChildByFieldName("interfaces"); ifaces != nil {
		text := strings.TrimSpace(strings.TrimPrefix(parser.NodeText(ifaces, source), "implements"))
		detail.Implements = splitParams(text)
	}

	props := map[string]any{}
	if mods := typeModifiers(n, source); len(mods) > 0 {
		props["modifiers"] = mods
	}

	sym := entity.NewSymbol(filePath, lang.Java, name, kind, declHeader(n, source),
		nodeLocation(n), detail, props)
	res.Symbols = append(res.Symbols, sym)
	return sym
}

func (w *javaWalker) extractMember(n *tree_sitter.Node, source []byte, filePath string, owner *entity.Symbol, res *Result) *entity.Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := parser.NodeText(nameNode, source)

	detail := entity.Detail{}
	if params := n.ChildByFieldName("parameters"); params != nil {
		detail.Parameters = splitParams(parser.NodeText(params, source))
	}
	if rt := n.ChildByFieldName("type"); rt != nil {
		detail.ReturnType = parser.NodeText(rt, source)
	}

	kind := entity.KindMethod
	role := "method"
	if n.Kind() == "constructor_declaration" {
		kind = entity.KindConstructor
		role = "constructor"
	}

	props := map[string]any{}
	mods := typeModifiers(n, source)
	if len(mods) > 0 {
		props["modifiers"] = mods
	}
	for _, m := range mods {
		switch m {
		case "static":
			props["static"] = true
		case "abstract":
			props["abstract"] = true
		case "public", "private", "protected":
			props["access"] = m
		}
	}

	sym := entity.NewSymbol(filePath, lang.Java, name, kind, declHeader(n, source),
		nodeLocation(n), detail, props)
	res.Symbols = append(res.Symbols, sym)
	res.Relations = append(res.Relations, entity.NewRelation(sym.ID, owner.ID, entity.RelBelongsTo, map[string]any{
		"role": role,
	}))
	return sym
}

// typeModifiers collects modifier keywords from a declaration's modifiers
// child (annotations are skipped).
func typeModifiers(n *tree_sitter.Node, source []byte) []string {
	var out []string
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || c.Kind() != "modifiers" {
			continue
		}
		for _, word := range strings.Fields(parser.NodeText(c, source)) {
			if !strings.HasPrefix(word, "@") {
				out = append(out, word)
			}
		}
	}
	return out
}
