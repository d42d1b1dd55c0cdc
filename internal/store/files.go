package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// File is one registered source file.
type File struct {
	ID            int64
	Path          string
	Language      string
	Hash          string
	Size          int64
	LastIndexedAt string
	LastScanID    int64
	Metadata      map[string]any
}

const fileCols = "id, path, language, hash, size, last_indexed_at, COALESCE(last_scan_id, 0), metadata"

// ListFiles returns all registered files ordered by path.
func (s *Store) ListFiles() ([]*File, error) {
	rows, err := s.q.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// FindFileByPath returns the file registered at path, or nil if unknown.
func (s *Store) FindFileByPath(path string) (*File, error) {
	row := s.q.QueryRow("SELECT "+fileCols+" FROM files WHERE path=?", path)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find file: %w", err)
	}
	return f, nil
}

// ListFilePaths returns every registered path, for prune reconciliation.
func (s *Store) ListFilePaths() ([]string, error) {
	rows, err := s.q.Query("SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list file paths: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteFilesByPaths removes file rows (symbols cascade) and their hash-cache
// entries. Used by prune when files disappear from disk.
func (s *Store) DeleteFilesByPaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	const batchSize = 400
	for i := 0; i < len(paths); i += batchSize {
		end := i + batchSize
		if end > len(paths) {
			end = len(paths)
		}
		chunk := paths[i:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for j, p := range chunk {
			placeholders[j] = "?"
			args[j] = p
		}
		in := strings.Join(placeholders, ",")
		if _, err := s.q.Exec("DELETE FROM files WHERE path IN ("+in+")", args...); err != nil {
			return fmt.Errorf("delete files: %w", err)
		}
		if _, err := s.q.Exec("DELETE FROM file_hashes WHERE file_path IN ("+in+")", args...); err != nil {
			return fmt.Errorf("delete file hashes: %w", err)
		}
	}
	return nil
}

// CountFiles returns the number of registered files.
func (s *Store) CountFiles() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var meta string
	if err := row.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.Size, &f.LastIndexedAt, &f.LastScanID, &meta); err != nil {
		return nil, err
	}
	f.Metadata = unmarshalProps(meta)
	return &f, nil
}

func scanFiles(rows *sql.Rows) ([]*File, error) {
	var result []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}
