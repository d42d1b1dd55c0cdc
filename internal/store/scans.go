package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Scan is one indexing run, the unit of audit history.
type Scan struct {
	ID          int64
	StartedAt   string
	CompletedAt string
	TotalFiles  int
	Pattern     string
	DurationMs  int64
	Notes       string
}

// ScannedFile is one discovered file to register under a scan.
type ScannedFile struct {
	Path     string
	Language string
	Hash     string
	Size     int64
}

// RecordFileScan inserts one scans row and upserts every scanned file,
// returning the scan id and a path→file-id map for symbol attachment.
// Call inside WithTransaction so the scan row and its files commit together.
func (s *Store) RecordFileScan(pattern string, files []ScannedFile) (int64, map[string]int64, error) {
	res, err := s.q.Exec(`INSERT INTO scans (started_at, total_files, pattern) VALUES (?, ?, ?)`,
		Now(), len(files), pattern)
	if err != nil {
		return 0, nil, fmt.Errorf("insert scan: %w", err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, nil, fmt.Errorf("scan id: %w", err)
	}

	fileIDs := make(map[string]int64, len(files))
	now := Now()
	for _, f := range files {
		r, err := s.q.Exec(`
			INSERT INTO files (path, language, hash, size, last_indexed_at, last_scan_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				language=excluded.language, hash=excluded.hash, size=excluded.size,
				last_indexed_at=excluded.last_indexed_at, last_scan_id=excluded.last_scan_id`,
			f.Path, f.Language, f.Hash, f.Size, now, scanID)
		if err != nil {
			return 0, nil, fmt.Errorf("upsert file %s: %w", f.Path, err)
		}
		id, err := r.LastInsertId()
		if err != nil {
			return 0, nil, err
		}
		// On conflict, LastInsertId can be stale; read the actual id back.
		if err := s.q.QueryRow("SELECT id FROM files WHERE path=?", f.Path).Scan(&id); err != nil {
			return 0, nil, fmt.Errorf("get file id %s: %w", f.Path, err)
		}
		fileIDs[f.Path] = id
	}
	return scanID, fileIDs, nil
}

// CompleteScan stamps a scan's completion time and duration.
func (s *Store) CompleteScan(scanID int64, durationMs int64, notes string) error {
	_, err := s.q.Exec(`UPDATE scans SET completed_at=?, duration_ms=?, notes=? WHERE id=?`,
		Now(), durationMs, notes, scanID)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	return nil
}

// LatestScan returns the most recent scan, or nil if none exist.
func (s *Store) LatestScan() (*Scan, error) {
	row := s.q.QueryRow(`SELECT id, started_at, COALESCE(completed_at, ''), total_files, pattern, duration_ms, notes
		FROM scans ORDER BY id DESC LIMIT 1`)
	var sc Scan
	err := row.Scan(&sc.ID, &sc.StartedAt, &sc.CompletedAt, &sc.TotalFiles, &sc.Pattern, &sc.DurationMs, &sc.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest scan: %w", err)
	}
	return &sc, nil
}

// CountScans returns the number of recorded scans.
func (s *Store) CountScans() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM scans").Scan(&count)
	return count, err
}
