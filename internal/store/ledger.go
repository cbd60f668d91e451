package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chorebank/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func scanRewardEntry(scanner interface{ Scan(...any) error }) (*model.RewardEntry, error) {
	var e model.RewardEntry
	err := scanner.Scan(
		&e.ID, &e.ChoreID, &e.AssignmentID, &e.ChildID, &e.ApprovedBy,
		&e.Amount, &e.ApprovedAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const rewardEntryCols = `id, chore_id, assignment_id, child_id, approved_by, amount, approved_at, created_at`

// InsertTx records an approved payout in the same transaction that marks the
// assignment approved.
func (s *LedgerStore) InsertTx(ctx context.Context, tx *sql.Tx, choreID, assignmentID, childID, approvedBy, amount int64, approvedAt time.Time) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reward_entries (chore_id, assignment_id, child_id, approved_by, amount, approved_at) VALUES (?, ?, ?, ?, ?, ?)`,
		choreID, assignmentID, childID, approvedBy, amount, approvedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert reward entry: %w", err)
	}
	return result.LastInsertId()
}

func (s *LedgerStore) ListByChild(ctx context.Context, childID int64) ([]model.RewardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rewardEntryCols+` FROM reward_entries WHERE child_id = ? ORDER BY approved_at ASC, id ASC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reward entries: %w", err)
	}
	defer rows.Close()

	var entries []model.RewardEntry
	for rows.Next() {
		e, err := scanRewardEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SumForChildTx totals a child's earnings inside an open transaction so the
// balance computation reads one consistent snapshot.
func (s *LedgerStore) SumForChildTx(ctx context.Context, tx *sql.Tx, childID int64) (int64, error) {
	var sum int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM reward_entries WHERE child_id = ?`,
		childID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum reward entries: %w", err)
	}
	return sum, nil
}
