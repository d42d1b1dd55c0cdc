package walker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codescope/internal/entity"
	"codescope/internal/lang"
	"codescope/internal/parser"
)

// goWalker extracts structs, interfaces, functions, and receiver methods.
type goWalker struct{}

func (w *goWalker) Languages() []lang.Language {
	return []lang.Language{lang.Go}
}

func (w *goWalker) Extract(source []byte, filePath string, l lang.Language) *Result {
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

	// Pass 1: type declarations. Receiver methods resolve their owner by
	// receiver-type name, so types are collected before functions.
	// First declaration wins on name collisions within the file.
	typeKinds := toSet(spec.TypeNodeTypes)
	typesByName := map[string]*entity.Symbol{}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if !typeKinds[n.Kind()] {
			return true
		}
		w.extractType(n, source, filePath, typesByName, res)
		return false
	})

	// Pass 2: functions and methods.
	type funcDecl struct {
		node *tree_sitter.Node
		sym  *entity.Symbol
	}
	var decls []funcDecl
	funcsByName := map[string]*entity.Symbol{}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_declaration", "method_declaration":
			sym := w.extractFunc(n, source, filePath, typesByName, res)
			if sym != nil {
				decls = append(decls, funcDecl{node: n, sym: sym})
				if _, seen := funcsByName[sym.Name]; !seen {
					funcsByName[sym.Name] = sym
				}
			}
			return false
		}
		return true
	})

	// Pass 3: same-file call edges.
	callKinds := toSet(spec.CallNodeTypes)
	for _, d := range decls {
		callTargets(d.node.ChildByFieldName("body"), source, callKinds, "function", funcsByName, d.sym, res)
	}

	return res
}

func (w *goWalker) extractType(n *tree_sitter.Node, source []byte, filePath string, typesByName map[string]*entity.Symbol, res *Result) {
	nameNode := n.ChildByFieldName("name")
	typeNode := n.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}

	var kind entity.Kind
	switch typeNode.Kind() {
	case "struct_type":
		kind = entity.KindStruct
	case "interface_type":
		kind = entity.KindInterface
	default:
		return
	}

	name := parser.NodeText(nameNode, source)
	sym := entity.NewSymbol(filePath, lang.Go, name, kind,
		"type "+name+" "+typeNode.Kind()[:len(typeNode.Kind())-len("_type")],
		nodeLocation(n), entity.Detail{},
		map[string]any{"exported": isExportedName(name)})
	res.Symbols = append(res.Symbols, sym)
	if _, seen := typesByName[name]; !seen {
		typesByName[name] = sym
	}
}

func (w *goWalker) extractFunc(n *tree_sitter.Node, source []byte, filePath string, typesByName map[string]*entity.Symbol, res *Result) *entity.Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := parser.NodeText(nameNode, source)
	if name == "" {
		return nil
	}

	detail := entity.Detail{}
	if params := n.ChildByFieldName("parameters"); params != nil {
		detail.Parameters = splitParams(parser.NodeText(params, source))
	}
	if result := n.ChildByFieldName("result"); result != nil {
		detail.ReturnType = parser.NodeText(result, source)
	}

	props := map[string]any{"exported": isExportedName(name)}
	kind := entity.KindFunction

	var receiverText string
	if recv := n.ChildByFieldName("receiver"); recv != nil {
		kind = entity.KindMethod
		receiverText = parser.NodeText(recv, source)
		props["receiver"] = receiverText
	}

	sym := entity.NewSymbol(filePath, lang.Go, name, kind, declHeader(n, source),
		nodeLocation(n), detail, props)
	res.Symbols = append(res.Symbols, sym)

	if receiverText != "" {
		if owner, ok := typesByName[receiverTypeName(receiverText)]; ok {
			res.Relations = append(res.Relations, entity.NewRelation(sym.ID, owner.ID, entity.RelBelongsTo, map[string]any{
				"role":     "method",
				"receiver": receiverText,
			}))
		}
	}
	return sym
}

// receiverTypeName extracts the bare type name from a receiver list like
// "(p *Person)" or "(c Cache[K, V])".
func receiverTypeName(receiver string) string {
	s := strings.TrimSpace(receiver)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimPrefix(fields[len(fields)-1], "*")
}

func isExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
