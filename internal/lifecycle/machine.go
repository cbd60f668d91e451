// Package lifecycle owns the per-assignment state transitions: a child
// completes, a parent approves or rejects, and approval may start a cooldown.
// Every transition runs inside a single transaction; partial writes are never
// observable.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chorebank/internal/model"
	"chorebank/internal/recurrence"
	"chorebank/internal/reward"
	"chorebank/internal/store"
)

const txTimeout = 5 * time.Second

type Machine struct {
	db          *sql.DB
	chores      *store.ChoreStore
	assignments *store.AssignmentStore
	ledger      *store.LedgerStore
	logger      *slog.Logger

	// Now is the clock; tests override it.
	Now func() time.Time
}

func NewMachine(db *sql.DB, chores *store.ChoreStore, assignments *store.AssignmentStore, ledger *store.LedgerStore, logger *slog.Logger) *Machine {
	return &Machine{
		db:          db,
		chores:      chores,
		assignments: assignments,
		ledger:      ledger,
		logger:      logger,
		Now:         time.Now,
	}
}

func (m *Machine) begin(ctx context.Context) (context.Context, context.CancelFunc, *sql.Tx, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	return ctx, cancel, tx, nil
}

// Complete marks the caller's available assignment as done and timestamps it.
// Pool chores without an assignment row are claimed through the assignment
// manager instead; a rejected pool claim already has a row and comes back
// through here.
func (m *Machine) Complete(ctx context.Context, p model.Principal, assignmentID int64) (*model.Assignment, error) {
	ctx, cancel, tx, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer tx.Rollback()

	a, err := m.assignments.GetByIDTx(ctx, tx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.ErrNotFound
	}
	if a.AssigneeID != p.ID {
		return nil, model.ErrNotAssignee
	}

	chore, err := m.chores.GetByIDTx(ctx, tx, a.ChoreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, model.ErrNotFound
	}
	if chore.Disabled {
		return nil, model.ErrChoreDisabled
	}

	now := m.Now()
	if !recurrence.IsAvailable(*a, *chore, now) {
		return nil, model.ErrInvalidState
	}

	if err := m.assignments.MarkCompletedTx(ctx, tx, a.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	m.logger.Info("assignment completed", "assignment_id", a.ID, "child_id", p.ID)
	return m.assignments.GetByID(ctx, a.ID)
}

// Approve resolves the final reward, marks the assignment approved, and
// records the payout in the earnings ledger, all in one transaction. For
// range rewards the parent's value must fall inside the range; for fixed
// rewards any provided value is ignored.
func (m *Machine) Approve(ctx context.Context, p model.Principal, assignmentID int64, providedValue *int64) (*model.Assignment, error) {
	ctx, cancel, tx, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer tx.Rollback()

	a, err := m.assignments.GetByIDTx(ctx, tx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.ErrNotFound
	}

	chore, err := m.chores.GetByIDTx(ctx, tx, a.ChoreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, model.ErrNotFound
	}
	if chore.CreatorID != p.ID {
		return nil, model.ErrNotOwner
	}
	if a.Status != model.StatusCompleted {
		return nil, model.ErrInvalidState
	}

	resolved, err := reward.Resolve(chore.Reward, providedValue)
	if err != nil {
		return nil, err
	}

	now := m.Now()
	if err := m.assignments.ApproveTx(ctx, tx, a.ID, now, resolved); err != nil {
		return nil, err
	}
	if _, err := m.ledger.InsertTx(ctx, tx, chore.ID, a.ID, a.AssigneeID, p.ID, resolved, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	m.logger.Info("assignment approved",
		"assignment_id", a.ID, "child_id", a.AssigneeID, "amount", resolved)
	return m.assignments.GetByID(ctx, a.ID)
}

// Reject sends a completed assignment straight back to available. The reason
// is required and kept on the row until the next completion.
func (m *Machine) Reject(ctx context.Context, p model.Principal, assignmentID int64, reason string) (*model.Assignment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, model.ErrInvalidReason
	}

	ctx, cancel, tx, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer tx.Rollback()

	a, err := m.assignments.GetByIDTx(ctx, tx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.ErrNotFound
	}

	chore, err := m.chores.GetByIDTx(ctx, tx, a.ChoreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, model.ErrNotFound
	}
	if chore.CreatorID != p.ID {
		return nil, model.ErrNotOwner
	}
	if a.Status != model.StatusCompleted {
		return nil, model.ErrInvalidState
	}

	if err := m.assignments.RejectTx(ctx, tx, a.ID, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	m.logger.Info("assignment rejected", "assignment_id", a.ID, "child_id", a.AssigneeID)
	return m.assignments.GetByID(ctx, a.ID)
}

// SetDisabled toggles a chore's visibility. Disabled chores reject completes
// and claims and disappear from availability listings, but approved work and
// running cooldowns are untouched and keep counting toward balances.
func (m *Machine) SetDisabled(ctx context.Context, p model.Principal, choreID int64, disabled bool) (*model.ChoreDefinition, error) {
	chore, err := m.chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, model.ErrNotFound
	}
	if chore.CreatorID != p.ID {
		return nil, model.ErrNotOwner
	}
	return m.chores.SetDisabled(ctx, choreID, disabled)
}

// DerivedStatus reports the caller-visible status of an assignment now.
func (m *Machine) DerivedStatus(ctx context.Context, assignmentID int64) (model.DerivedStatus, error) {
	a, err := m.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", model.ErrNotFound
	}
	chore, err := m.chores.GetByID(ctx, a.ChoreID)
	if err != nil {
		return "", err
	}
	if chore == nil {
		return "", model.ErrNotFound
	}
	return recurrence.Derive(*a, *chore, m.Now()), nil
}
