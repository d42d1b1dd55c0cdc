package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"codescope/internal/entity"
)

// symbolBlob is what the symbols.metadata column holds: the full symbol plus
// the relations touching it, so a symbol row is self-describing.
type symbolBlob struct {
	entity.Symbol
	Relations []*entity.Relation `json:"relations,omitempty"`
}

// symbolsBatchSize keeps 8 cols × rows under SQLite's 999 bind-var limit.
const symbolsBatchSize = 120

// relationsBatchSize keeps 5 cols × rows under the same limit.
const relationsBatchSize = 150

// ReplaceSymbols deletes all symbol rows for the files touched by the batch,
// then bulk-inserts the new symbol set and its relations. Deletions cascade to
// relations, so re-indexing never accumulates duplicates. Call inside
// WithTransaction: a failure mid-batch must not leave deletions without their
// replacements.
func (s *Store) ReplaceSymbols(scanID int64, fileIDs map[string]int64, symbols []*entity.Symbol, relations []*entity.Relation) error {
	ids := make([]int64, 0, len(fileIDs))
	for _, id := range fileIDs {
		ids = append(ids, id)
	}
	if err := s.deleteSymbolsByFileIDs(ids); err != nil {
		return err
	}

	for i := 0; i < len(symbols); i += symbolsBatchSize {
		end := i + symbolsBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		if err := s.insertSymbolChunk(scanID, fileIDs, symbols[i:end], relations); err != nil {
			return err
		}
	}

	for i := 0; i < len(relations); i += relationsBatchSize {
		end := i + relationsBatchSize
		if end > len(relations) {
			end = len(relations)
		}
		if err := s.insertRelationChunk(scanID, relations[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) deleteSymbolsByFileIDs(ids []int64) error {
	const batchSize = 900
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[i:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for j, id := range chunk {
			placeholders[j] = "?"
			args[j] = id
		}
		query := "DELETE FROM symbols WHERE file_id IN (" + strings.Join(placeholders, ",") + ")"
		if _, err := s.q.Exec(query, args...); err != nil {
			return fmt.Errorf("delete symbols: %w", err)
		}
	}
	return nil
}

func (s *Store) insertSymbolChunk(scanID int64, fileIDs map[string]int64, batch []*entity.Symbol, relations []*entity.Relation) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO symbols (id, file_id, scan_id, name, kind, signature, line, metadata) VALUES `)

	args := make([]any, 0, len(batch)*8)
	for i, sym := range batch {
		fileID, ok := fileIDs[sym.FilePath]
		if !ok {
			return fmt.Errorf("symbol %s: file %s not registered in this scan", sym.ID, sym.FilePath)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?)")
		blob := symbolBlob{Symbol: *sym, Relations: entity.RelationsForSymbol(sym.ID, relations)}
		args = append(args, sym.ID, fileID, scanID, sym.Name, string(sym.Kind), sym.Signature,
			sym.Location.StartLine, marshalJSON(blob))
	}

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert symbol batch: %w", err)
	}
	return nil
}

func (s *Store) insertRelationChunk(scanID int64, batch []*entity.Relation) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO relations (source_symbol_id, target_symbol_id, kind, scan_id, properties) VALUES `)

	args := make([]any, 0, len(batch)*5)
	for i, r := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?)")
		args = append(args, r.SourceID, r.TargetID, r.Kind, scanID, marshalJSON(r.Properties))
	}

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert relation batch: %w", err)
	}
	return nil
}

// SymbolFilter narrows ListSymbols. Zero values mean "no filter".
type SymbolFilter struct {
	Name     string
	Kind     string
	FilePath string
	Limit    int
}

// ListSymbols returns symbols matching the filter, ordered by file then line.
func (s *Store) ListSymbols(f SymbolFilter) ([]*entity.Symbol, error) {
	query := `SELECT s.metadata FROM symbols s JOIN files fl ON s.file_id = fl.id WHERE 1=1`
	var args []any
	if f.Name != "" {
		query += " AND s.name = ?"
		args = append(args, f.Name)
	}
	if f.Kind != "" {
		query += " AND s.kind = ?"
		args = append(args, f.Kind)
	}
	if f.FilePath != "" {
		query += " AND fl.path = ?"
		args = append(args, f.FilePath)
	}
	query += " ORDER BY fl.path, s.line"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []*entity.Symbol
	for rows.Next() {
		var meta string
		if err := rows.Scan(&meta); err != nil {
			return nil, err
		}
		sym, err := decodeSymbol(meta)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// GetSymbolByID returns the symbol with the given id, or nil if absent.
func (s *Store) GetSymbolByID(id string) (*entity.Symbol, error) {
	var meta string
	err := s.q.QueryRow("SELECT metadata FROM symbols WHERE id=?", id).Scan(&meta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get symbol: %w", err)
	}
	return decodeSymbol(meta)
}

// CountSymbols returns the total number of stored symbols.
func (s *Store) CountSymbols() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&count)
	return count, err
}

// CountSymbolsByFile returns the number of symbol rows attached to path.
func (s *Store) CountSymbolsByFile(path string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM symbols s JOIN files fl ON s.file_id = fl.id WHERE fl.path=?`, path).Scan(&count)
	return count, err
}

func decodeSymbol(meta string) (*entity.Symbol, error) {
	var blob symbolBlob
	if err := json.Unmarshal([]byte(meta), &blob); err != nil {
		return nil, fmt.Errorf("decode symbol: %w", err)
	}
	return &blob.Symbol, nil
}
