package store

import (
	"fmt"
	"strings"
)

// FileHashes returns the full hash cache as a path→hash map.
func (s *Store) FileHashes() (map[string]string, error) {
	rows, err := s.q.Query("SELECT file_path, hash FROM file_hashes")
	if err != nil {
		return nil, fmt.Errorf("file hashes: %w", err)
	}
	defer rows.Close()
	hashes := map[string]string{}
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		hashes[path] = hash
	}
	return hashes, rows.Err()
}

// hashesBatchSize keeps 3 cols × rows under the 999 bind-var limit.
const hashesBatchSize = 300

// UpsertFileHashes records the current hash for each path.
func (s *Store) UpsertFileHashes(hashes map[string]string) error {
	if len(hashes) == 0 {
		return nil
	}
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}

	now := Now()
	for i := 0; i < len(paths); i += hashesBatchSize {
		end := i + hashesBatchSize
		if end > len(paths) {
			end = len(paths)
		}
		chunk := paths[i:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO file_hashes (file_path, hash, indexed_at) VALUES `)
		args := make([]any, 0, len(chunk)*3)
		for j, p := range chunk {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString("(?,?,?)")
			args = append(args, p, hashes[p], now)
		}
		sb.WriteString(` ON CONFLICT(file_path) DO UPDATE SET hash=excluded.hash, indexed_at=excluded.indexed_at`)

		if _, err := s.q.Exec(sb.String(), args...); err != nil {
			return fmt.Errorf("upsert file hashes: %w", err)
		}
	}
	return nil
}
