package store

import (
	"context"
	"database/sql"
	"fmt"

	"chorebank/internal/model"
)

type AdjustmentStore struct {
	db *sql.DB
}

func NewAdjustmentStore(db *sql.DB) *AdjustmentStore {
	return &AdjustmentStore{db: db}
}

func scanAdjustment(scanner interface{ Scan(...any) error }) (*model.Adjustment, error) {
	var a model.Adjustment
	err := scanner.Scan(&a.ID, &a.ChildID, &a.ParentID, &a.Amount, &a.Reason, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const adjustmentCols = `id, child_id, parent_id, amount, reason, created_at`

func (s *AdjustmentStore) Create(ctx context.Context, childID, parentID, amount int64, reason string) (*model.Adjustment, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO adjustments (child_id, parent_id, amount, reason) VALUES (?, ?, ?, ?)`,
		childID, parentID, amount, reason,
	)
	if err != nil {
		return nil, fmt.Errorf("insert adjustment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AdjustmentStore) GetByID(ctx context.Context, id int64) (*model.Adjustment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adjustmentCols+` FROM adjustments WHERE id = ?`, id)
	a, err := scanAdjustment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return a, nil
}

func (s *AdjustmentStore) ListByChild(ctx context.Context, childID int64) ([]model.Adjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+adjustmentCols+` FROM adjustments WHERE child_id = ? ORDER BY created_at ASC, id ASC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []model.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adjustments = append(adjustments, *a)
	}
	return adjustments, rows.Err()
}

// SumForChildTx totals a child's manual adjustments inside an open transaction.
func (s *AdjustmentStore) SumForChildTx(ctx context.Context, tx *sql.Tx, childID int64) (int64, error) {
	var sum int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM adjustments WHERE child_id = ?`,
		childID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum adjustments: %w", err)
	}
	return sum, nil
}
