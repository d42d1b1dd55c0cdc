// Package index orchestrates the command surface: build runs
// scan → extract → store as one pipeline, status/config/prune inspect and
// maintain an existing index. Every command returns a flat response with
// status and exitCode.
package index

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"codescope/internal/config"
	"codescope/internal/entity"
	"codescope/internal/fsgate"
	"codescope/internal/lang"
	"codescope/internal/meta"
	"codescope/internal/scanner"
	"codescope/internal/store"
	"codescope/internal/walker"
)

// DefaultIndexDir is the per-project index directory.
const DefaultIndexDir = ".codescope"

// Command response statuses.
const (
	StatusInitialized    = "initialized"
	StatusUpdated        = "updated"
	StatusOK             = "ok"
	StatusUninitialized  = "uninitialized"
	StatusError          = "error"
	StatusInvalidCommand = "invalid_command"
)

// Response is the flat result object every command returns.
type Response map[string]any

// Options configures a command invocation.
type Options struct {
	Cwd        string
	IndexRoot  string
	Extensions []string
}

func errorResponse(err error) Response {
	return Response{"status": StatusError, "exitCode": 1, "error": err.Error()}
}

// Dispatch routes a command name to its implementation. Unknown commands
// yield invalid_command with exit code 1.
func Dispatch(ctx context.Context, command string, opts Options) Response {
	switch command {
	case "build":
		return Build(ctx, opts)
	case "status":
		return Status(opts)
	case "config":
		return Config(opts)
	case "prune":
		return Prune(ctx, opts)
	default:
		return Response{"status": StatusInvalidCommand, "exitCode": 1, "command": command}
	}
}

// fileEntry is one discovered file with its change classification.
type fileEntry struct {
	path     string
	language lang.Language
	hash     string
	size     int64
	changed  bool
}

// extractResult is the pure per-file extraction output, produced in parallel
// with no shared state.
type extractResult struct {
	entry  fileEntry
	result *walker.Result
	err    error
}

// Build scans the project, re-extracts symbols for changed files, and writes
// everything to the index. Per-file failures are recorded and skipped; only a
// scanner failure or an unrecordable scan aborts the command.
func Build(ctx context.Context, opts Options) Response {
	started := time.Now()

	cwd, err := resolveCwd(opts.Cwd)
	if err != nil {
		return errorResponse(err)
	}
	if info, statErr := os.Stat(cwd); statErr != nil {
		return errorResponse(fmt.Errorf("project root: %w", statErr))
	} else if !info.IsDir() {
		return errorResponse(fmt.Errorf("project root %s is not a directory", cwd))
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return errorResponse(err)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = cfg.Extensions
	}
	indexRoot := resolveIndexRoot(cwd, opts.IndexRoot)
	if err := os.MkdirAll(indexRoot, 0o755); err != nil {
		return errorResponse(fmt.Errorf("create index root: %w", err))
	}

	gate, err := NewGate(cfg, cwd, indexRoot)
	if err != nil {
		return errorResponse(err)
	}
	if err := gate.EnsureWriteAllowed(indexRoot); err != nil {
		return errorResponse(err)
	}

	st, err := store.Open(indexRoot)
	if err != nil {
		return errorResponse(err)
	}
	defer st.Close()

	existing, err := meta.Load(indexRoot)
	if err != nil {
		return errorResponse(err)
	}
	first := existing == nil
	m := existing
	if first {
		m = meta.Init(indexRoot, filepath.Join(indexRoot, store.DBFileName))
	}
	m.RecordCommand("build", map[string]any{"cwd": cwd, "extensions": exts})

	slog.Info("build.start", "cwd", cwd, "index_root", indexRoot)

	ignore := append([]string{DefaultIndexDir}, cfg.Ignore...)
	paths, summary, err := scanner.Scan(cwd, exts, &scanner.Options{IgnoreDirs: ignore})
	if err != nil {
		m.RecordError(err.Error(), "error")
		_ = m.Save(indexRoot)
		return errorResponse(err)
	}
	m.State = meta.StateScanned
	slog.Info("build.scan", "total_files", summary.TotalFiles, "pattern", summary.Pattern)

	prevHashes, err := st.FileHashes()
	if err != nil {
		// Change detection degrades to a full re-extract.
		slog.Warn("build.hash_cache.err", "err", err)
		m.RecordError(err.Error(), "error")
		prevHashes = map[string]string{}
	}

	var symbolErrors []string
	entries := make([]fileEntry, 0, len(paths))
	for _, p := range paths {
		e := fileEntry{path: p}
		if l, ok := lang.Detect(filepath.Ext(p)); ok {
			e.language = l
		}
		if info, statErr := os.Stat(p); statErr == nil {
			e.size = info.Size()
		}
		hash, hashErr := fileHash(p)
		if hashErr != nil {
			symbolErrors = append(symbolErrors, fmt.Sprintf("%s: %v", p, hashErr))
			continue
		}
		e.hash = hash
		e.changed = prevHashes[p] != hash
		entries = append(entries, e)
	}

	results := extractChanged(ctx, gate, cfg.MaxWorkers, entries)
	if ctx.Err() != nil {
		m.RecordError(ctx.Err().Error(), "error")
		_ = m.Save(indexRoot)
		return errorResponse(ctx.Err())
	}

	scanned := make([]store.ScannedFile, len(entries))
	for i, e := range entries {
		scanned[i] = store.ScannedFile{Path: e.path, Language: string(e.language), Hash: e.hash, Size: e.size}
	}

	var scanID int64
	var fileIDs map[string]int64
	err = st.WithTransaction(func(tx *store.Store) error {
		var txErr error
		scanID, fileIDs, txErr = tx.RecordFileScan(summary.Pattern, scanned)
		return txErr
	})
	if err != nil {
		// The scan itself could not be recorded: the whole build fails.
		m.RecordError(err.Error(), "error")
		_ = m.Save(indexRoot)
		return errorResponse(fmt.Errorf("record scan: %w", err))
	}

	var symbols []*entity.Symbol
	var relations []*entity.Relation
	var diagnostics []meta.FileDiagnostic
	changedIDs := map[string]int64{}
	changedHashes := map[string]string{}
	for _, r := range results {
		if r.err != nil {
			symbolErrors = append(symbolErrors, fmt.Sprintf("%s: %v", r.entry.path, r.err))
			continue
		}
		changedIDs[r.entry.path] = fileIDs[r.entry.path]
		changedHashes[r.entry.path] = r.entry.hash
		symbols = append(symbols, r.result.Symbols...)
		relations = append(relations, r.result.Relations...)
		for _, d := range r.result.Diagnostics {
			diagnostics = append(diagnostics, meta.FileDiagnostic{
				File: r.entry.path, Severity: d.Severity, Message: d.Message, Location: d.Location,
			})
		}
	}

	err = st.WithTransaction(func(tx *store.Store) error {
		if txErr := tx.ReplaceSymbols(scanID, changedIDs, symbols, relations); txErr != nil {
			return txErr
		}
		return tx.UpsertFileHashes(changedHashes)
	})
	if err != nil {
		// Storage failure after a recorded scan: retained, build continues.
		slog.Warn("build.store.err", "err", err)
		m.RecordError(err.Error(), "error")
	}

	durationMs := time.Since(started).Milliseconds()
	if err := st.CompleteScan(scanID, durationMs, ""); err != nil {
		slog.Warn("build.complete_scan.err", "err", err)
		m.RecordError(err.Error(), "error")
	}

	symbolCount, _ := st.CountSymbols()
	relationCount, _ := st.CountRelations()

	m.State = meta.StateIndexed
	m.FilesIndexed = summary.TotalFiles
	m.Languages = sortedKeys(summary.ByLanguage)
	m.Resources.MaxWorkers = cfg.MaxWorkers
	m.ACL = meta.ACL{Enforced: gate.Enforced(), ReadRoots: gate.ReadRoots(), WriteRoots: gate.WriteRoots()}
	m.Parsers = parserTable(summary.ByLanguage)
	m.LastScan = &meta.ScanInfo{
		At:                time.Now().UTC().Format(time.RFC3339),
		Cwd:               cwd,
		TotalFiles:        summary.TotalFiles,
		DurationMs:        durationMs,
		Pattern:           summary.Pattern,
		Extensions:        exts,
		CountsByLanguage:  summary.ByLanguage,
		CountsByExtension: summary.ByExtension,
		SymbolCount:       symbolCount,
		RelationCount:     relationCount,
		SymbolErrors:      symbolErrors,
		SymbolDiagnostics: diagnostics,
		ScanID:            scanID,
	}
	if err := m.Save(indexRoot); err != nil {
		slog.Warn("build.metadata.err", "err", err)
	}

	status := StatusUpdated
	if first {
		status = StatusInitialized
	}
	slog.Info("build.done", "status", status, "files", summary.TotalFiles,
		"changed", len(changedIDs), "symbols", symbolCount, "duration_ms", durationMs)

	return Response{
		"status":        status,
		"exitCode":      0,
		"scanId":        scanID,
		"totalFiles":    summary.TotalFiles,
		"changedFiles":  len(changedIDs),
		"symbolCount":   symbolCount,
		"relationCount": relationCount,
		"durationMs":    durationMs,
	}
}

// extractChanged runs the per-file walkers for changed files in parallel.
// Extraction is pure: reads and parses happen concurrently, every store
// write stays with the caller. One file's failure never stops the rest.
func extractChanged(ctx context.Context, gate *fsgate.Gate, maxWorkers int, entries []fileEntry) []extractResult {
	changed := make([]fileEntry, 0, len(entries))
	for _, e := range entries {
		if e.changed {
			changed = append(changed, e)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	workers := maxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(changed) {
		workers = len(changed)
	}

	results := make([]extractResult, len(changed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range changed {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = extractFile(gate, e)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func extractFile(gate *fsgate.Gate, e fileEntry) extractResult {
	content, err := gate.ReadFile(e.path)
	if err != nil {
		return extractResult{entry: e, err: err}
	}
	return extractResult{entry: e, result: walker.Extract([]byte(content), e.path, e.language)}
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func resolveCwd(cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve cwd: %w", err)
		}
		cwd = wd
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("resolve cwd: %w", err)
	}
	return abs, nil
}

func resolveIndexRoot(cwd, indexRoot string) string {
	if indexRoot == "" {
		return filepath.Join(cwd, DefaultIndexDir)
	}
	return indexRoot
}

// NewGate builds the filesystem gate from the project ACL. Every content
// read — extraction during build and live snippet retrieval — goes through
// the gate it returns. Unset roots default to the project root for reads and
// the index root for writes.
func NewGate(cfg *config.Config, cwd, indexRoot string) (*fsgate.Gate, error) {
	if !cfg.ACL.Enforced {
		return fsgate.Permissive(), nil
	}
	readRoots := cfg.ACL.ReadRoots
	if len(readRoots) == 0 {
		readRoots = []string{cwd}
	}
	writeRoots := cfg.ACL.WriteRoots
	if len(writeRoots) == 0 {
		writeRoots = []string{indexRoot}
	}
	return fsgate.New(readRoots, writeRoots)
}

func parserTable(byLanguage map[string]int) map[string]meta.Parser {
	table := make(map[string]meta.Parser, len(byLanguage))
	for name := range byLanguage {
		status := "unsupported"
		if l, ok := lang.ForName(name); ok && walker.Supported(l) {
			status = "ready"
		}
		table[name] = meta.Parser{Strategy: "tree-sitter", Status: status}
	}
	return table
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
