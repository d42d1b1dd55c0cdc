package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(root, "sub", "b.py"), "y = 2\n")
	writeFile(t, filepath.Join(root, "sub", "deep", "c.py"), "z = 3\n")
	writeFile(t, filepath.Join(root, "node_modules", "d.py"), "ignored\n")
	writeFile(t, filepath.Join(root, "sub", "__pycache__", "e.py"), "ignored\n")

	paths, summary, err := Scan(root, []string{".py"}, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if summary.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", summary.TotalFiles)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("expected absolute path, got %s", p)
		}
	}
	if summary.ByExtension[".py"] != 3 {
		t.Errorf("ByExtension[.py] = %d, want 3", summary.ByExtension[".py"])
	}
	if summary.ByLanguage["python"] != 3 {
		t.Errorf("ByLanguage[python] = %d, want 3", summary.ByLanguage["python"])
	}
}

func TestScanDefaultExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "app.ts"), "export {}\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip\n")

	paths, summary, err := Scan(root, nil, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(paths), paths)
	}
	if summary.ByLanguage["go"] != 1 || summary.ByLanguage["typescript"] != 1 {
		t.Errorf("unexpected language counts: %v", summary.ByLanguage)
	}
}

func TestScanExtraIgnore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.go"), "package a\n")
	writeFile(t, filepath.Join(root, "generated", "b.go"), "package b\n")

	paths, _, err := Scan(root, []string{"go"}, &Options{IgnoreDirs: []string{"generated"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 file, got %d: %v", len(paths), paths)
	}
}

func TestScanMissingRoot(t *testing.T) {
	if _, _, err := Scan(filepath.Join(t.TempDir(), "nope"), nil, nil); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestPattern(t *testing.T) {
	if got := Pattern([]string{".py"}); got != "**/*.py" {
		t.Errorf("single ext pattern = %q", got)
	}
	if got := Pattern([]string{".go", ".py"}); got != "**/*.{go,py}" {
		t.Errorf("multi ext pattern = %q", got)
	}
}
