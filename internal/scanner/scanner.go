// Package scanner discovers candidate source files under a root, honoring
// ignore rules and extension filters, and reports per-language counts.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"codescope/internal/lang"
)

// ignoreDirs are directory names skipped during discovery, matched against
// every path segment.
var ignoreDirs = map[string]bool{
	".cache": true, ".eggs": true, ".git": true, ".gradle": true,
	".hg": true, ".idea": true, ".mypy_cache": true, ".nox": true,
	".npm": true, ".nyc_output": true, ".pnpm-store": true,
	".pytest_cache": true, ".ruff_cache": true, ".svn": true,
	".tox": true, ".venv": true, ".vscode": true, ".yarn": true,
	"__pycache__": true, "bower_components": true, "build": true,
	"coverage": true, "dist": true, "htmlcov": true,
	"node_modules": true, "out": true, "site-packages": true,
	"target": true, "vendor": true, "venv": true,
}

// DefaultExtensions is the extension allow-list used when none is supplied.
var DefaultExtensions = []string{".go", ".py", ".java", ".js", ".jsx", ".ts", ".tsx"}

// Summary describes one scan: what was matched and how it breaks down.
type Summary struct {
	TotalFiles  int
	Pattern     string
	ByExtension map[string]int
	ByLanguage  map[string]int
}

// Pattern builds the glob pattern string for an extension set:
// **/*.ext for one extension, **/*.{a,b,...} for several.
func Pattern(exts []string) string {
	trimmed := make([]string, len(exts))
	for i, e := range exts {
		trimmed[i] = strings.TrimPrefix(e, ".")
	}
	if len(trimmed) == 1 {
		return "**/*." + trimmed[0]
	}
	return "**/*.{" + strings.Join(trimmed, ",") + "}"
}

// ignoredPath reports whether any segment of the root-relative path is an
// ignored directory name.
func ignoredPath(rel string, extra map[string]bool) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if ignoreDirs[seg] || extra[seg] {
			return true
		}
	}
	return false
}

// Options configures a scan beyond the extension allow-list.
type Options struct {
	// IgnoreDirs adds directory names to the built-in ignore set.
	IgnoreDirs []string
}

// Scan walks root and returns the absolute paths of all files whose extension
// is in exts (DefaultExtensions when nil), plus a summary. Pure filesystem
// read; walk errors propagate to the caller.
func Scan(root string, exts []string, opts *Options) ([]string, *Summary, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root: %w", err)
	}

	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	normalized := make([]string, 0, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !allowed[e] {
			allowed[e] = true
			normalized = append(normalized, e)
		}
	}
	sort.Strings(normalized)

	extra := map[string]bool{}
	if opts != nil {
		for _, d := range opts.IgnoreDirs {
			extra[d] = true
		}
	}

	summary := &Summary{
		Pattern:     Pattern(normalized),
		ByExtension: map[string]int{},
		ByLanguage:  map[string]int{},
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel != "." && ignoredPath(rel, extra) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if !allowed[ext] {
			return nil
		}
		paths = append(paths, path)
		summary.TotalFiles++
		summary.ByExtension[ext]++
		if l, ok := lang.Detect(ext); ok {
			summary.ByLanguage[string(l)]++
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, summary, nil
}
