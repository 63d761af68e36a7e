package trace

import (
	"context"
	"fmt"
)

// CallRecord is one row of the recorded-call log.
type CallRecord struct {
	ID           string
	ManagerToken string
	FakedType    string
	Method       string
	Rule         string
	Args         string // canonical JSON
	Returns      string // canonical JSON
	BaseCall     bool
	Seq          int64
}

// WriteCall inserts a call record into the log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored; other constraint violations still return errors.
func (s *Store) WriteCall(ctx context.Context, rec CallRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls
		(id, manager_token, faked_type, method, rule, args, returns, base_call, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.ManagerToken,
		rec.FakedType,
		rec.Method,
		rec.Rule,
		rec.Args,
		rec.Returns,
		rec.BaseCall,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write call %s: %w", rec.ID, err)
	}

	return nil
}
