package store

import (
	"testing"

	"codescope/internal/entity"
	"codescope/internal/lang"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSymbol(path, name string, kind entity.Kind, line int) *entity.Symbol {
	return entity.NewSymbol(path, lang.Go, name, kind, "func "+name+"()",
		entity.Location{StartLine: line, StartColumn: 0, EndLine: line + 2, EndColumn: 1},
		entity.Detail{}, nil)
}

func recordTestScan(t *testing.T, s *Store, files ...ScannedFile) (int64, map[string]int64) {
	t.Helper()
	var scanID int64
	var fileIDs map[string]int64
	err := s.WithTransaction(func(tx *Store) error {
		var err error
		scanID, fileIDs, err = tx.RecordFileScan("**/*.go", files)
		return err
	})
	if err != nil {
		t.Fatalf("RecordFileScan: %v", err)
	}
	return scanID, fileIDs
}

func TestRecordFileScan(t *testing.T) {
	s := openTestStore(t)

	scanID, fileIDs := recordTestScan(t, s,
		ScannedFile{Path: "/src/a.go", Language: "go", Hash: "h1", Size: 10},
		ScannedFile{Path: "/src/b.go", Language: "go", Hash: "h2", Size: 20},
	)
	if scanID == 0 {
		t.Fatal("scan id should be non-zero")
	}
	if len(fileIDs) != 2 {
		t.Fatalf("fileIDs = %v", fileIDs)
	}

	// Re-scanning the same paths upserts, keeping the same file ids.
	scanID2, fileIDs2 := recordTestScan(t, s,
		ScannedFile{Path: "/src/a.go", Language: "go", Hash: "h1b", Size: 11},
	)
	if scanID2 <= scanID {
		t.Errorf("second scan id %d should exceed first %d", scanID2, scanID)
	}
	if fileIDs2["/src/a.go"] != fileIDs["/src/a.go"] {
		t.Errorf("file id changed across scans: %d vs %d", fileIDs2["/src/a.go"], fileIDs["/src/a.go"])
	}

	f, err := s.FindFileByPath("/src/a.go")
	if err != nil {
		t.Fatalf("FindFileByPath: %v", err)
	}
	if f.Hash != "h1b" || f.LastScanID != scanID2 {
		t.Errorf("file row not updated: %+v", f)
	}
}

func TestReplaceSymbolsIdempotent(t *testing.T) {
	s := openTestStore(t)
	scanID, fileIDs := recordTestScan(t, s, ScannedFile{Path: "/src/a.go", Language: "go"})

	syms := []*entity.Symbol{
		testSymbol("/src/a.go", "Alpha", entity.KindFunction, 1),
		testSymbol("/src/a.go", "Beta", entity.KindFunction, 5),
	}

	for range 2 {
		err := s.WithTransaction(func(tx *Store) error {
			return tx.ReplaceSymbols(scanID, fileIDs, syms, nil)
		})
		if err != nil {
			t.Fatalf("ReplaceSymbols: %v", err)
		}
	}

	count, err := s.CountSymbolsByFile("/src/a.go")
	if err != nil {
		t.Fatalf("CountSymbolsByFile: %v", err)
	}
	if count != 2 {
		t.Errorf("symbol count = %d, want 2 (no duplicate accumulation)", count)
	}
}

func TestReplaceSymbolsScopedToFiles(t *testing.T) {
	s := openTestStore(t)
	scanID, fileIDs := recordTestScan(t, s,
		ScannedFile{Path: "/src/a.go", Language: "go"},
		ScannedFile{Path: "/src/b.go", Language: "go"},
	)

	err := s.WithTransaction(func(tx *Store) error {
		return tx.ReplaceSymbols(scanID, fileIDs, []*entity.Symbol{
			testSymbol("/src/a.go", "Alpha", entity.KindFunction, 1),
			testSymbol("/src/b.go", "Beta", entity.KindFunction, 1),
		}, nil)
	})
	if err != nil {
		t.Fatalf("ReplaceSymbols: %v", err)
	}

	// Re-index only a.go with a different symbol set.
	onlyA := map[string]int64{"/src/a.go": fileIDs["/src/a.go"]}
	err = s.WithTransaction(func(tx *Store) error {
		return tx.ReplaceSymbols(scanID, onlyA, []*entity.Symbol{
			testSymbol("/src/a.go", "Gamma", entity.KindFunction, 3),
		}, nil)
	})
	if err != nil {
		t.Fatalf("ReplaceSymbols: %v", err)
	}

	aCount, _ := s.CountSymbolsByFile("/src/a.go")
	bCount, _ := s.CountSymbolsByFile("/src/b.go")
	if aCount != 1 {
		t.Errorf("a.go symbol count = %d, want 1", aCount)
	}
	if bCount != 1 {
		t.Errorf("b.go symbol count = %d, want 1 (untouched)", bCount)
	}

	syms, err := s.ListSymbols(SymbolFilter{FilePath: "/src/a.go"})
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Gamma" {
		t.Errorf("a.go symbols = %v", syms)
	}
}

func TestListSymbolsFilters(t *testing.T) {
	s := openTestStore(t)
	scanID, fileIDs := recordTestScan(t, s, ScannedFile{Path: "/src/a.go", Language: "go"})

	err := s.WithTransaction(func(tx *Store) error {
		return tx.ReplaceSymbols(scanID, fileIDs, []*entity.Symbol{
			testSymbol("/src/a.go", "Alpha", entity.KindFunction, 1),
			testSymbol("/src/a.go", "Alpha", entity.KindMethod, 8),
			testSymbol("/src/a.go", "Beta", entity.KindFunction, 15),
		}, nil)
	})
	if err != nil {
		t.Fatalf("ReplaceSymbols: %v", err)
	}

	byName, err := s.ListSymbols(SymbolFilter{Name: "Alpha"})
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(byName) != 2 {
		t.Errorf("name filter returned %d, want 2", len(byName))
	}

	byKind, err := s.ListSymbols(SymbolFilter{Name: "Alpha", Kind: "method"})
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(byKind) != 1 || byKind[0].Location.StartLine != 8 {
		t.Errorf("kind filter = %v", byKind)
	}

	limited, err := s.ListSymbols(SymbolFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit filter returned %d, want 2", len(limited))
	}
}

func TestGetSymbolByID(t *testing.T) {
	s := openTestStore(t)
	scanID, fileIDs := recordTestScan(t, s, ScannedFile{Path: "/src/a.go", Language: "go"})

	sym := testSymbol("/src/a.go", "Alpha", entity.KindFunction, 1)
	err := s.WithTransaction(func(tx *Store) error {
		return tx.ReplaceSymbols(scanID, fileIDs, []*entity.Symbol{sym}, nil)
	})
	if err != nil {
		t.Fatalf("ReplaceSymbols: %v", err)
	}

	got, err := s.GetSymbolByID(sym.ID)
	if err != nil {
		t.Fatalf("GetSymbolByID: %v", err)
	}
	if got == nil || got.Name != "Alpha" || got.Signature != sym.Signature {
		t.Errorf("got %+v", got)
	}

	missing, err := s.GetSymbolByID("nope#x:1:000000000000")
	if err != nil {
		t.Fatalf("GetSymbolByID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing symbol should be nil, got %+v", missing)
	}
}

func TestRelationsForSymbolDirections(t *testing.T) {
	s := openTestStore(t)
	scanID, fileIDs := recordTestScan(t, s, ScannedFile{Path: "/src/a.go", Language: "go"})

	owner := testSymbol("/src/a.go", "Person", entity.KindStruct, 1)
	method := testSymbol("/src/a.go", "Greet", entity.KindMethod, 5)
	rels := []*entity.Relation{
		entity.NewRelation(method.ID, owner.ID, entity.RelBelongsTo, map[string]any{"role": "method"}),
	}
	err := s.WithTransaction(func(tx *Store) error {
		return tx.ReplaceSymbols(scanID, fileIDs, []*entity.Symbol{owner, method}, rels)
	})
	if err != nil {
		t.Fatalf("ReplaceSymbols: %v", err)
	}

	asSource, err := s.RelationsForSymbol(method.ID, "", DirectionSource)
	if err != nil {
		t.Fatalf("RelationsForSymbol: %v", err)
	}
	if len(asSource) != 1 || asSource[0].TargetID != owner.ID {
		t.Errorf("source direction = %v", asSource)
	}
	if asSource[0].Properties["role"] != "method" {
		t.Errorf("relation properties = %v", asSource[0].Properties)
	}

	asTarget, err := s.RelationsForSymbol(method.ID, "", DirectionTarget)
	if err != nil {
		t.Fatalf("RelationsForSymbol: %v", err)
	}
	if len(asTarget) != 0 {
		t.Errorf("target direction = %v", asTarget)
	}

	both, err := s.RelationsForSymbol(owner.ID, entity.RelBelongsTo, DirectionBoth)
	if err != nil {
		t.Fatalf("RelationsForSymbol: %v", err)
	}
	if len(both) != 1 {
		t.Errorf("both direction = %v", both)
	}

	none, err := s.RelationsForSymbol(owner.ID, entity.RelCalls, "")
	if err != nil {
		t.Fatalf("RelationsForSymbol: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("kind filter = %v", none)
	}

	if _, err := s.RelationsForSymbol(owner.ID, "", "sideways"); err == nil {
		t.Error("unknown direction should error")
	}
}

func TestFileHashCache(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpsertFileHashes(map[string]string{"/src/a.go": "aaa", "/src/b.go": "bbb"}); err != nil {
		t.Fatalf("UpsertFileHashes: %v", err)
	}
	if err := s.UpsertFileHashes(map[string]string{"/src/a.go": "aa2"}); err != nil {
		t.Fatalf("UpsertFileHashes: %v", err)
	}

	hashes, err := s.FileHashes()
	if err != nil {
		t.Fatalf("FileHashes: %v", err)
	}
	if hashes["/src/a.go"] != "aa2" || hashes["/src/b.go"] != "bbb" {
		t.Errorf("hashes = %v", hashes)
	}
}

func TestDeleteFilesByPathsCascades(t *testing.T) {
	s := openTestStore(t)
	scanID, fileIDs := recordTestScan(t, s,
		ScannedFile{Path: "/src/a.go", Language: "go"},
		ScannedFile{Path: "/src/b.go", Language: "go"},
	)
	err := s.WithTransaction(func(tx *Store) error {
		if err := tx.ReplaceSymbols(scanID, fileIDs, []*entity.Symbol{
			testSymbol("/src/a.go", "Alpha", entity.KindFunction, 1),
			testSymbol("/src/b.go", "Beta", entity.KindFunction, 1),
		}, nil); err != nil {
			return err
		}
		return tx.UpsertFileHashes(map[string]string{"/src/a.go": "aaa", "/src/b.go": "bbb"})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := s.DeleteFilesByPaths([]string{"/src/a.go"}); err != nil {
		t.Fatalf("DeleteFilesByPaths: %v", err)
	}

	if count, _ := s.CountFiles(); count != 1 {
		t.Errorf("file count = %d, want 1", count)
	}
	if count, _ := s.CountSymbols(); count != 1 {
		t.Errorf("symbol count = %d, want 1 (cascade)", count)
	}
	hashes, _ := s.FileHashes()
	if _, ok := hashes["/src/a.go"]; ok {
		t.Error("hash cache entry should be removed with the file")
	}
}

func TestLatestScan(t *testing.T) {
	s := openTestStore(t)

	none, err := s.LatestScan()
	if err != nil {
		t.Fatalf("LatestScan: %v", err)
	}
	if none != nil {
		t.Errorf("empty store should have no latest scan, got %+v", none)
	}

	scanID, _ := recordTestScan(t, s, ScannedFile{Path: "/src/a.go", Language: "go"})
	if err := s.CompleteScan(scanID, 42, "ok"); err != nil {
		t.Fatalf("CompleteScan: %v", err)
	}

	latest, err := s.LatestScan()
	if err != nil {
		t.Fatalf("LatestScan: %v", err)
	}
	if latest == nil || latest.ID != scanID || latest.DurationMs != 42 || latest.CompletedAt == "" {
		t.Errorf("latest = %+v", latest)
	}
	if latest.TotalFiles != 1 || latest.Pattern != "**/*.go" {
		t.Errorf("scan summary = %+v", latest)
	}
}
