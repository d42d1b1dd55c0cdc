package walker

import (
	"strings"
	"testing"

	"codescope/internal/entity"
	"codescope/internal/lang"
)

func findSymbol(t *testing.T, res *Result, name string) *entity.Symbol {
	t.Helper()
	for _, s := range res.Symbols {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found; have %s", name, symbolNames(res))
	return nil
}

func symbolNames(res *Result) string {
	names := make([]string, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

func findRelation(t *testing.T, res *Result, sourceID, targetID, kind string) *entity.Relation {
	t.Helper()
	for _, r := range res.Relations {
		if r.SourceID == sourceID && r.TargetID == targetID && r.Kind == kind {
			return r
		}
	}
	t.Fatalf("relation %s %s -> %s not found (%d relations)", kind, sourceID, targetID, len(res.Relations))
	return nil
}

func TestExtractUnsupportedLanguage(t *testing.T) {
	res := Extract([]byte("body"), "notes.txt", lang.Language("ruby"))
	if len(res.Symbols) != 0 {
		t.Fatalf("expected no symbols, got %d", len(res.Symbols))
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(res.Diagnostics))
	}
	d := res.Diagnostics[0]
	if d.Severity != entity.SeverityWarning {
		t.Errorf("severity = %q, want warning", d.Severity)
	}
	if !strings.Contains(d.Message, "unsupported language") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestExtractSyntaxErrorStillExtracts(t *testing.T) {
	src := []byte("package main\n\nfunc Broken( {\n\nfunc Fine() {}\n")
	res := Extract(src, "broken.go", lang.Go)

	var errDiag *entity.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Severity == entity.SeverityError {
			errDiag = d
		}
	}
	if errDiag == nil {
		t.Fatal("expected an error diagnostic for broken syntax")
	}
	if errDiag.Location == nil || errDiag.Location.StartLine < 1 {
		t.Errorf("error diagnostic should carry a 1-based location, got %+v", errDiag.Location)
	}
	// Extraction continues past the error.
	findSymbol(t, res, "Fine")
}

func TestExtractLocationIsOneBased(t *testing.T) {
	src := []byte("def first():\n    pass\n")
	res := Extract(src, "one.py", lang.Python)
	s := findSymbol(t, res, "first")
	if s.Location.StartLine != 1 {
		t.Errorf("startLine = %d, want 1", s.Location.StartLine)
	}
	if s.Location.StartColumn != 0 {
		t.Errorf("startColumn = %d, want 0", s.Location.StartColumn)
	}
}
