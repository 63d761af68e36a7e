package trace

import (
	"context"
	"fmt"
)

// ReadCalls returns all records for a manager token with deterministic
// ordering: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no records exist for the token.
func (s *Store) ReadCalls(ctx context.Context, managerToken string) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, manager_token, faked_type, method, rule, args, returns, base_call, seq
		FROM calls
		WHERE manager_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, managerToken)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	return scanCalls(rows)
}

// ReadAllCalls returns every record in the log with deterministic
// ordering, grouped by manager token.
func (s *Store) ReadAllCalls(ctx context.Context) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, manager_token, faked_type, method, rule, args, returns, base_call, seq
		FROM calls
		ORDER BY manager_token ASC, seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	return scanCalls(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCalls(rows rowScanner) ([]CallRecord, error) {
	records := []CallRecord{}
	for rows.Next() {
		var rec CallRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ManagerToken,
			&rec.FakedType,
			&rec.Method,
			&rec.Rule,
			&rec.Args,
			&rec.Returns,
			&rec.BaseCall,
			&rec.Seq,
		); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}

	return records, nil
}
