package store

import (
	"database/sql"
	"fmt"
)

// Relation query directions.
const (
	DirectionSource = "source"
	DirectionTarget = "target"
	DirectionBoth   = "both"
)

// StoredRelation is a relation row with its scan attribution.
type StoredRelation struct {
	ID         int64
	SourceID   string
	TargetID   string
	Kind       string
	ScanID     int64
	Properties map[string]any
}

// RelationsForSymbol returns relations touching the given symbol id. kind
// filters by relation kind when non-empty; direction is one of
// DirectionSource, DirectionTarget, or DirectionBoth ("" means both).
func (s *Store) RelationsForSymbol(id, kind, direction string) ([]*StoredRelation, error) {
	query := `SELECT id, source_symbol_id, target_symbol_id, kind, COALESCE(scan_id, 0), properties FROM relations WHERE `
	var args []any
	switch direction {
	case DirectionSource:
		query += "source_symbol_id = ?"
		args = append(args, id)
	case DirectionTarget:
		query += "target_symbol_id = ?"
		args = append(args, id)
	case DirectionBoth, "":
		query += "(source_symbol_id = ? OR target_symbol_id = ?)"
		args = append(args, id, id)
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY id"

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("relations for symbol: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// CountRelations returns the total number of stored relations.
func (s *Store) CountRelations() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM relations").Scan(&count)
	return count, err
}

func scanRelations(rows *sql.Rows) ([]*StoredRelation, error) {
	var result []*StoredRelation
	for rows.Next() {
		var r StoredRelation
		var props string
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.Kind, &r.ScanID, &props); err != nil {
			return nil, err
		}
		r.Properties = unmarshalProps(props)
		result = append(result, &r)
	}
	return result, rows.Err()
}
