package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codescope/internal/lang"
)

func TestParseGo(t *testing.T) {
	source := []byte(`package main

func Hello() string {
	return "hello"
}

func Add(a, b int) int {
	return a + b
}
`)
	tree, err := Parse(lang.Go, source)
	if err != nil {
		t.Fatalf("Parse Go: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}

	var funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_declarations, got %d", funcCount)
	}
}

func TestParsePython(t *testing.T) {
	source := []byte(`def greet(name):
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	var funcCount, classCount int
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
}

func TestParseUnsupported(t *testing.T) {
	if _, err := Parse(lang.Language("cobol"), []byte("x")); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestSupported(t *testing.T) {
	for _, l := range lang.All() {
		if !Supported(l) {
			t.Errorf("expected grammar for %s", l)
		}
	}
	if Supported(lang.Language("ruby")) {
		t.Error("ruby should not have a grammar")
	}
}

func TestFirstErrorNode(t *testing.T) {
	tree, err := Parse(lang.Go, []byte("package main\n\nfunc broken( {\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		t.Fatal("expected parse error in tree")
	}
	errNode := FirstErrorNode(root)
	if errNode == nil {
		t.Fatal("expected FirstErrorNode to locate an error node")
	}
}

func TestFirstErrorNodeClean(t *testing.T) {
	tree, err := Parse(lang.Go, []byte("package main\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	if n := FirstErrorNode(tree.RootNode()); n != nil {
		t.Errorf("expected nil for clean tree, got %s", n.Kind())
	}
}
