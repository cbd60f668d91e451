package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chorebank/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var completedAt, approvedAt sql.NullTime
	var rewardValue sql.NullInt64

	err := scanner.Scan(
		&a.ID, &a.ChoreID, &a.AssigneeID, &a.Mode, &a.Status,
		&completedAt, &approvedAt, &rewardValue, &a.RejectionReason,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		a.ApprovedAt = &t
	}
	if rewardValue.Valid {
		v := rewardValue.Int64
		a.ApprovedRewardValue = &v
	}
	return &a, nil
}

const assignmentCols = `id, chore_id, assignee_id, mode, status, completed_at, approved_at, approved_reward_value, rejection_reason, created_at, updated_at`

func (s *AssignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Assignment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment in tx: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) ListByAssignee(ctx context.Context, assigneeID int64) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE assignee_id = ? ORDER BY created_at ASC, id ASC`,
		assigneeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by assignee: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentStore) ListByChore(ctx context.Context, choreID int64) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE chore_id = ? ORDER BY id ASC`,
		choreID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments by chore: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// ForChoreTx returns the single assignment row of a pool chore, or nil when
// the chore is unclaimed.
func (s *AssignmentStore) ForChoreTx(ctx context.Context, tx *sql.Tx, choreID int64) (*model.Assignment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE chore_id = ? LIMIT 1`,
		choreID,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("assignment for chore in tx: %w", err)
	}
	return a, nil
}

// ForChore is the read-path variant of ForChoreTx.
func (s *AssignmentStore) ForChore(ctx context.Context, choreID int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE chore_id = ? LIMIT 1`,
		choreID,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("assignment for chore: %w", err)
	}
	return a, nil
}

// CountForChore returns how many assignment rows a chore currently has.
func (s *AssignmentStore) CountForChore(ctx context.Context, choreID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments WHERE chore_id = ?`, choreID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return n, nil
}

func (s *AssignmentStore) InsertAvailableTx(ctx context.Context, tx *sql.Tx, choreID, assigneeID int64, mode model.AssignmentMode) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (chore_id, assignee_id, mode, status) VALUES (?, ?, ?, ?)`,
		choreID, assigneeID, mode, model.StatusAvailable,
	)
	if err != nil {
		return 0, fmt.Errorf("insert assignment: %w", err)
	}
	return result.LastInsertId()
}

// InsertClaimedTx creates a pool assignment already in completed state: for a
// pool chore, completing is what claims it. The partial unique index on
// pool-mode rows makes the race loser fail here with a UNIQUE violation.
func (s *AssignmentStore) InsertClaimedTx(ctx context.Context, tx *sql.Tx, choreID, assigneeID int64, completedAt time.Time) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (chore_id, assignee_id, mode, status, completed_at) VALUES (?, ?, ?, ?, ?)`,
		choreID, assigneeID, model.ModeUnassignedPool, model.StatusCompleted, completedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert claimed assignment: %w", err)
	}
	return result.LastInsertId()
}

// MarkCompletedTx also clears any leftover approval fields: completing an
// assignment whose cooldown just expired starts a fresh cycle on the same row.
func (s *AssignmentStore) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id int64, completedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status = ?, completed_at = ?, approved_at = NULL, approved_reward_value = NULL, rejection_reason = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusCompleted, completedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark assignment completed: %w", err)
	}
	return nil
}

func (s *AssignmentStore) ApproveTx(ctx context.Context, tx *sql.Tx, id int64, approvedAt time.Time, rewardValue int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status = ?, approved_at = ?, approved_reward_value = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusApproved, approvedAt.UTC(), rewardValue, id,
	)
	if err != nil {
		return fmt.Errorf("approve assignment: %w", err)
	}
	return nil
}

// RejectTx puts the assignment straight back to available: a rejected chore
// is simply waiting to be redone. The reason sticks around until the next
// completion so the child can see what to fix.
func (s *AssignmentStore) RejectTx(ctx context.Context, tx *sql.Tx, id int64, reason string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status = ?, completed_at = NULL, rejection_reason = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusAvailable, reason, id,
	)
	if err != nil {
		return fmt.Errorf("reject assignment: %w", err)
	}
	return nil
}

// ResetCycleTx clears a finished recurrence cycle so the same row can be
// worked again. Single and multi-independent assignments reuse their row for
// the chore's whole lifetime.
func (s *AssignmentStore) ResetCycleTx(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE assignments SET status = ?, completed_at = NULL, approved_at = NULL, approved_reward_value = NULL, rejection_reason = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusAvailable, id,
	)
	if err != nil {
		return fmt.Errorf("reset assignment cycle: %w", err)
	}
	return nil
}

func (s *AssignmentStore) DeleteTx(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
