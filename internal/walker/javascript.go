package walker

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codescope/internal/entity"
	"codescope/internal/lang"
	"codescope/internal/parser"
)

// jsWalker handles JavaScript, TypeScript, and TSX. Export and default-export
// flags propagate down from enclosing export statements; anonymous
// declarations synthesize a name.
type jsWalker struct{}

func (w *jsWalker) Languages() []lang.Language {
	return []lang.Language{lang.JavaScript, lang.TypeScript, lang.TSX}
}

// exportCtx carries export flags from an export_statement to the declaration
// it wraps.
type exportCtx struct {
	exported      bool
	defaultExport bool
}

type jsDecl struct {
	body *tree_sitter.Node
	sym  *entity.Symbol
}

type jsState struct {
	source   []byte
	filePath string
	language lang.Language
	decls    []jsDecl
	byName   map[string]*entity.Symbol
	res      *Result
}

func (w *jsWalker) Extract(source []byte, filePath string, l lang.Language) *Result {
	res := &Result{}
	if !supports(w, l) {
		return unsupported(l)
	}
	tree := parseSource(l, source, res)
	if tree == nil {
		return res
	}
	defer tree.Close()

	st := &jsState{
		source:   source,
		filePath: filePath,
		language: l,
		byName:   map[string]*entity.Symbol{},
		res:      res,
	}
	w.walk(tree.RootNode(), st, exportCtx{})

	callKinds := toSet(lang.ForLanguage(l).CallNodeTypes)
	for _, d := range st.decls {
		callTargets(d.body, source, callKinds, "function", st.byName, d.sym, res)
	}

	return res
}

func (w *jsWalker) walk(n *tree_sitter.Node, st *jsState, ctx exportCtx) {
	switch n.Kind() {
	case "export_statement":
		next := exportCtx{exported: true, defaultExport: hasChildToken(n, "default")}
		for i := uint(0); i < n.ChildCount(); i++ {
			if c := n.Child(i); c != nil {
				w.walk(c, st, next)
			}
		}
		return

	case "function_declaration", "generator_function_declaration", "function_expression":
		w.extractFunction(n, st, ctx)
		return

	case "arrow_function":
		// Only a default-exported arrow is a declaration in its own right;
		// named arrow bindings arrive via variable declarators.
		if ctx.defaultExport {
			w.extractFunction(n, st, ctx)
			return
		}

	case "class_declaration", "abstract_class_declaration":
		w.extractClass(n, st, ctx)
		return

	case "interface_declaration":
		w.extractInterface(n, st, ctx)
		return

	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			if c != nil && c.Kind() == "variable_declarator" {
				w.extractDeclarator(c, st, ctx)
			}
		}
		return
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			w.walk(c, st, ctx)
		}
	}
}

func (s *jsState) record(body *tree_sitter.Node, sym *entity.Symbol) {
	if sym == nil {
		return
	}
	s.decls = append(s.decls, jsDecl{body: body, sym: sym})
	if _, seen := s.byName[sym.Name]; !seen {
		s.byName[sym.Name] = sym
	}
}

// funcProps builds the shared property set for function-like declarations.
func funcProps(n *tree_sitter.Node, ctx exportCtx) map[string]any {
	props := map[string]any{}
	if hasChildToken(n, "async") {
		props["async"] = true
	}
	if n.Kind() == "generator_function_declaration" || hasChildToken(n, "*") {
		props["generator"] = true
	}
	if ctx.exported {
		props["exported"] = true
	}
	if ctx.defaultExport {
		props["defaultExport"] = true
	}
	return props
}

// funcDetail extracts parameters and a TS return-type annotation.
func funcDetail(n *tree_sitter.Node, source []byte) entity.Detail {
	detail := entity.Detail{}
	if params := n.ChildByFieldName("parameters"); params != nil {
		detail.Parameters = splitParams(parser.NodeText(params, source))
	} else if p := n.ChildByFieldName("parameter"); p != nil {
		detail.Parameters = []string{parser.NodeText(p, source)}
	}
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		detail.ReturnType = strings.TrimSpace(strings.TrimPrefix(parser.NodeText(rt, source), ":"))
	}
	return detail
}

func (w *jsWalker) extractFunction(n *tree_sitter.Node, st *jsState, ctx exportCtx) {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = parser.NodeText(nameNode, st.source)
	}
	if name == "" {
		if ctx.defaultExport {
			name = "default"
		} else {
			name = "<anonymous>"
		}
	}

	sym := entity.NewSymbol(st.filePath, st.language, name, entity.KindFunction,
		declHeader(n, st.source), nodeLocation(n), funcDetail(n, st.source), funcProps(n, ctx))
	st.res.Symbols = append(st.res.Symbols, sym)
	st.record(n.ChildByFieldName("body"), sym)
}

// extractDeclarator handles const/let/var bindings whose value is an arrow
// function or function expression.
func (w *jsWalker) extractDeclarator(n *tree_sitter.Node, st *jsState, ctx exportCtx) {
	value := n.ChildByFieldName("value")
	if value == nil {
		return
	}
	if value.Kind() != "arrow_function" && value.Kind() != "function_expression" {
		return
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, st.source)

	sym := entity.NewSymbol(st.filePath, st.language, name, entity.KindFunction,
		declHeader(n, st.source), nodeLocation(n), funcDetail(value, st.source), funcProps(value, ctx))
	st.res.Symbols = append(st.res.Symbols, sym)
	st.record(value.ChildByFieldName("body"), sym)
}

func (w *jsWalker) extractClass(n *tree_sitter.Node, st *jsState, ctx exportCtx) {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = parser.NodeText(nameNode, st.source)
	}
	if name == "" {
		if ctx.defaultExport {
			name = "default"
		} else {
			name = "<anonymous>"
		}
	}

	detail := entity.Detail{}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == "class_heritage" {
			parseHeritage(parser.NodeText(c, st.source), &detail)
		}
	}

	props := funcProps(n, ctx)
	if n.Kind() == "abstract_class_declaration" {
		props["abstract"] = true
	}
	delete(props, "generator")

	classSym := entity.NewSymbol(st.filePath, st.language, name, entity.KindClass,
		declHeader(n, st.source), nodeLocation(n), detail, props)
	st.res.Symbols = append(st.res.Symbols, classSym)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		if member == nil {
			continue
		}
		switch member.Kind() {
		case "method_definition":
			w.extractMethod(member, st, classSym)
		case "field_definition", "public_field_definition":
			w.extractFieldMethod(member, st, classSym)
		}
	}
}

func (w *jsWalker) extractMethod(n *tree_sitter.Node, st *jsState, owner *entity.Symbol) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, st.source)

	kind := entity.KindMethod
	role := "method"
	switch {
	case name == "constructor":
		kind = entity.KindConstructor
		role = "constructor"
	case hasChildToken(n, "get"):
		kind = entity.KindGetter
		role = "member"
	case hasChildToken(n, "set"):
		kind = entity.KindSetter
		role = "member"
	}

	props := map[string]any{}
	if hasChildToken(n, "async") {
		props["async"] = true
	}
	if hasChildToken(n, "static") {
		props["static"] = true
	}

	sym := entity.NewSymbol(st.filePath, st.language, name, kind,
		declHeader(n, st.source), nodeLocation(n), funcDetail(n, st.source), props)
	st.res.Symbols = append(st.res.Symbols, sym)
	st.res.Relations = append(st.res.Relations, entity.NewRelation(sym.ID, owner.ID, entity.RelBelongsTo, map[string]any{
		"role": role,
	}))
	st.record(n.ChildByFieldName("body"), sym)
}

// extractFieldMethod handles arrow-function class properties:
// handleClick = () => {...}.
func (w *jsWalker) extractFieldMethod(n *tree_sitter.Node, st *jsState, owner *entity.Symbol) {
	value := n.ChildByFieldName("value")
	if value == nil || value.Kind() != "arrow_function" {
		return
	}
	nameNode := n.ChildByFieldName("property")
	if nameNode == nil {
		nameNode = n.ChildByFieldName("name")
	}
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, st.source)

	props := map[string]any{}
	if hasChildToken(value, "async") {
		props["async"] = true
	}
	if hasChildToken(n, "static") {
		props["static"] = true
	}

	sym := entity.NewSymbol(st.filePath, st.language, name, entity.KindMethod,
		declHeader(n, st.source), nodeLocation(n), funcDetail(value, st.source), props)
	st.res.Symbols = append(st.res.Symbols, sym)
	st.res.Relations = append(st.res.Relations, entity.NewRelation(sym.ID, owner.ID, entity.RelBelongsTo, map[string]any{
		"role": "member",
	}))
	st.record(value.ChildByFieldName("body"), sym)
}

func (w *jsWalker) extractInterface(n *tree_sitter.Node, st *jsState, ctx exportCtx) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, st.source)

	detail := entity.Detail{}
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == "extends_type_clause" {
			detail.Extends = strings.TrimSpace(strings.TrimPrefix(parser.NodeText(c, st.source), "extends"))
		}
	}

	props := map[string]any{}
	if ctx.exported {
		props["exported"] = true
	}

	sym := entity.NewSymbol(st.filePath, st.language, name, entity.KindInterface,
		declHeader(n, st.source), nodeLocation(n), detail, props)
	st.res.Symbols = append(st.res.Symbols, sym)
}

// parseHeritage splits a heritage clause like
// "extends Base implements A, B" into detail fields.
func parseHeritage(text string, detail *entity.Detail) {
	text = strings.TrimSpace(text)
	implementsPart := ""
	if i := strings.Index(text, "implements"); i >= 0 {
		implementsPart = strings.TrimSpace(text[i+len("implements"):])
		text = strings.TrimSpace(text[:i])
	}
	if strings.HasPrefix(text, "extends") {
		detail.Extends = strings.TrimSpace(strings.TrimPrefix(text, "extends"))
	}
	if implementsPart != "" {
		detail.Implements = splitParams(implementsPart)
	}
}
