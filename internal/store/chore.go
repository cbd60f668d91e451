package store

import (
	"context"
	"database/sql"
	"fmt"

	"chorebank/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.ChoreDefinition, error) {
	var c model.ChoreDefinition
	var recurring, disabled int

	err := scanner.Scan(
		&c.ID, &c.CreatorID, &c.Title, &c.Description,
		&c.Reward.Kind, &c.Reward.Amount, &c.Reward.Min, &c.Reward.Max,
		&c.Mode, &recurring, &c.CooldownDays, &disabled,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Recurring = recurring != 0
	c.Disabled = disabled != 0
	return &c, nil
}

const choreCols = `id, creator_id, title, description, reward_kind, reward_amount, reward_min, reward_max, mode, recurring, cooldown_days, disabled, created_at, updated_at`

func (s *ChoreStore) Create(ctx context.Context, creatorID int64, title, description string, reward model.RewardSpec, mode model.AssignmentMode, recurring bool, cooldownDays int) (*model.ChoreDefinition, error) {
	var r int
	if recurring {
		r = 1
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chore_definitions (creator_id, title, description, reward_kind, reward_amount, reward_min, reward_max, mode, recurring, cooldown_days) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		creatorID, title, description, reward.Kind, reward.Amount, reward.Min, reward.Max, mode, r, cooldownDays,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// InsertTx creates the chore row inside an open transaction, so a chore and
// its initial assignments commit or roll back together.
func (s *ChoreStore) InsertTx(ctx context.Context, tx *sql.Tx, creatorID int64, title, description string, reward model.RewardSpec, mode model.AssignmentMode, recurring bool, cooldownDays int) (int64, error) {
	var r int
	if recurring {
		r = 1
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO chore_definitions (creator_id, title, description, reward_kind, reward_amount, reward_min, reward_max, mode, recurring, cooldown_days) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		creatorID, title, description, reward.Kind, reward.Amount, reward.Min, reward.Max, mode, r, cooldownDays,
	)
	if err != nil {
		return 0, fmt.Errorf("insert chore in tx: %w", err)
	}
	return result.LastInsertId()
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.ChoreDefinition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chore_definitions WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// GetByIDTx reads a chore inside an open transaction so lifecycle decisions
// see the same snapshot they write against.
func (s *ChoreStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*model.ChoreDefinition, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chore_definitions WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore in tx: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByCreator(ctx context.Context, creatorID int64) ([]model.ChoreDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chore_definitions WHERE creator_id = ? ORDER BY title ASC`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores by creator: %w", err)
	}
	defer rows.Close()

	var chores []model.ChoreDefinition
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListPoolByCreator returns the enabled pool-mode chores owned by a parent.
// Which of them are actually claimable depends on their active assignments.
func (s *ChoreStore) ListPoolByCreator(ctx context.Context, creatorID int64) ([]model.ChoreDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chore_definitions WHERE creator_id = ? AND mode = ? AND disabled = 0 ORDER BY title ASC`,
		creatorID, model.ModeUnassignedPool,
	)
	if err != nil {
		return nil, fmt.Errorf("list pool chores: %w", err)
	}
	defer rows.Close()

	var chores []model.ChoreDefinition
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// UpdateDetails edits the fields a parent may change after creation. Mode is
// deliberately absent: assignment topology is immutable.
func (s *ChoreStore) UpdateDetails(ctx context.Context, id int64, title, description string, reward model.RewardSpec, recurring bool, cooldownDays int) (*model.ChoreDefinition, error) {
	var r int
	if recurring {
		r = 1
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE chore_definitions SET title = ?, description = ?, reward_kind = ?, reward_amount = ?, reward_min = ?, reward_max = ?, recurring = ?, cooldown_days = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, reward.Kind, reward.Amount, reward.Min, reward.Max, r, cooldownDays, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) SetDisabled(ctx context.Context, id int64, disabled bool) (*model.ChoreDefinition, error) {
	var d int
	if disabled {
		d = 1
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE chore_definitions SET disabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		d, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set chore disabled: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the chore; its assignments go with it via ON DELETE CASCADE.
func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chore_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
