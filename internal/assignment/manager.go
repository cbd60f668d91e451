// Package assignment turns chore definitions into trackable assignments and
// owns the pool-claim path, the one genuinely racy operation in the engine.
package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"chorebank/internal/model"
	"chorebank/internal/recurrence"
	"chorebank/internal/reward"
	"chorebank/internal/store"
)

const (
	// txTimeout bounds every mutating transaction.
	txTimeout = 5 * time.Second

	// claimRetries bounds transparent retries of a contended pool claim.
	claimRetries = 3
	claimBackoff = 25 * time.Millisecond
)

type Manager struct {
	db          *sql.DB
	chores      *store.ChoreStore
	assignments *store.AssignmentStore
	logger      *slog.Logger

	// Now is the clock; tests override it.
	Now func() time.Time
}

func NewManager(db *sql.DB, chores *store.ChoreStore, assignments *store.AssignmentStore, logger *slog.Logger) *Manager {
	return &Manager{
		db:          db,
		chores:      chores,
		assignments: assignments,
		logger:      logger,
		Now:         time.Now,
	}
}

// CreateChoreParams are the parent-supplied fields of a new chore.
type CreateChoreParams struct {
	Title        string
	Description  string
	Reward       model.RewardSpec
	Mode         model.AssignmentMode
	Recurring    bool
	CooldownDays int
	AssigneeIDs  []int64
}

// CreateChore validates the template, then creates the chore and its initial
// assignments in one transaction.
func (m *Manager) CreateChore(ctx context.Context, p model.Principal, params CreateChoreParams) (*model.ChoreDefinition, error) {
	if !p.IsParent() {
		return nil, model.ErrNotOwner
	}
	if !params.Mode.Valid() {
		return nil, fmt.Errorf("invalid assignment mode %q", params.Mode)
	}
	if err := reward.ValidateSpec(params.Reward); err != nil {
		return nil, err
	}
	if params.CooldownDays < 0 {
		return nil, fmt.Errorf("cooldown days must not be negative")
	}
	if err := checkAssigneeCount(params.Mode, len(params.AssigneeIDs)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	choreID, err := m.chores.InsertTx(ctx, tx, p.ID, params.Title, params.Description, params.Reward, params.Mode, params.Recurring, params.CooldownDays)
	if err != nil {
		return nil, err
	}
	if err := insertForMode(ctx, tx, m.assignments, choreID, params.Mode, params.AssigneeIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	m.logger.Info("chore created", "chore_id", choreID, "mode", params.Mode, "creator_id", p.ID)
	return m.chores.GetByID(ctx, choreID)
}

// CreateAssignments fans an existing chore out to assignees according to its
// mode. Pool chores get no rows; a claim creates one later.
func (m *Manager) CreateAssignments(ctx context.Context, def *model.ChoreDefinition, assigneeIDs []int64) ([]model.Assignment, error) {
	if err := checkAssigneeCount(def.Mode, len(assigneeIDs)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertForMode(ctx, tx, m.assignments, def.ID, def.Mode, assigneeIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return m.assignments.ListByChore(ctx, def.ID)
}

func checkAssigneeCount(mode model.AssignmentMode, n int) error {
	switch mode {
	case model.ModeSingle:
		if n != 1 {
			return model.ErrInvalidAssigneeCount
		}
	case model.ModeMultiIndependent:
		if n < 1 {
			return model.ErrInvalidAssigneeCount
		}
	case model.ModeUnassignedPool:
		if n != 0 {
			return model.ErrInvalidAssigneeCount
		}
	}
	return nil
}

func insertForMode(ctx context.Context, tx *sql.Tx, assignments *store.AssignmentStore, choreID int64, mode model.AssignmentMode, assigneeIDs []int64) error {
	for _, assigneeID := range assigneeIDs {
		if _, err := assignments.InsertAvailableTx(ctx, tx, choreID, assigneeID, mode); err != nil {
			return err
		}
	}
	return nil
}

// ClaimPoolChore claims and completes an unclaimed pool chore for the calling
// child; for pool chores, completing is the claim. Exactly one of N
// concurrent callers wins; the rest get ErrAlreadyClaimed. Lock contention is
// retried a bounded number of times before surfacing.
func (m *Manager) ClaimPoolChore(ctx context.Context, p model.Principal, choreID int64) (*model.Assignment, error) {
	if !p.IsChild() {
		return nil, model.ErrNotAssignee
	}

	var claimed *model.Assignment
	backoff := retry.WithMaxRetries(claimRetries, retry.NewConstant(claimBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		a, err := m.tryClaim(ctx, p, choreID)
		if err != nil {
			if store.IsBusy(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		claimed = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("pool chore claimed", "chore_id", choreID, "child_id", p.ID, "assignment_id", claimed.ID)
	return claimed, nil
}

func (m *Manager) tryClaim(ctx context.Context, p model.Principal, choreID int64) (*model.Assignment, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Validate against the chore as this transaction sees it, so a
	// concurrent disable cannot race the claim.
	chore, err := m.chores.GetByIDTx(ctx, tx, choreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, model.ErrNotFound
	}
	if chore.Mode != model.ModeUnassignedPool {
		return nil, model.ErrInvalidState
	}
	if chore.Disabled {
		return nil, model.ErrChoreDisabled
	}
	if p.ParentID == nil || *p.ParentID != chore.CreatorID {
		return nil, model.ErrNotAssignee
	}

	now := m.Now()

	existing, err := m.assignments.ForChoreTx(ctx, tx, chore.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Only an approved claim whose cooldown has run out frees the pool.
		// A rejected claim stays with its claimant until redone or the chore
		// is deleted; anything else means someone holds the chore.
		if existing.Status != model.StatusApproved || recurrence.Derive(*existing, *chore, now) != model.DerivedAvailable {
			return nil, model.ErrAlreadyClaimed
		}
		if err := m.assignments.DeleteTx(ctx, tx, existing.ID); err != nil {
			return nil, err
		}
	}

	id, err := m.assignments.InsertClaimedTx(ctx, tx, chore.ID, p.ID, now)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, model.ErrAlreadyClaimed
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, model.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return m.assignments.GetByID(ctx, id)
}

// AvailableChore is one entry a child can act on right now: an assignment of
// theirs that is workable, or an unclaimed pool chore (Assignment nil).
type AvailableChore struct {
	Chore      model.ChoreDefinition `json:"chore"`
	Assignment *model.Assignment     `json:"assignment,omitempty"`
}

// ListAvailableFor returns everything the calling child can complete now:
// their own available assignments plus claimable pool chores owned by their
// parent. Disabled chores never show up.
func (m *Manager) ListAvailableFor(ctx context.Context, p model.Principal) ([]AvailableChore, error) {
	if !p.IsChild() {
		return nil, model.ErrNotAssignee
	}
	now := m.Now()

	assignments, err := m.assignments.ListByAssignee(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	var out []AvailableChore
	for _, a := range assignments {
		if a.Mode == model.ModeUnassignedPool {
			// Claimed pool rows show up through the pool listing below once
			// their cooldown expires; a rejected claim is workable directly.
			if a.Status != model.StatusAvailable {
				continue
			}
		}
		chore, err := m.chores.GetByID(ctx, a.ChoreID)
		if err != nil {
			return nil, err
		}
		if chore == nil || chore.Disabled {
			continue
		}
		if recurrence.IsAvailable(a, *chore, now) {
			out = append(out, AvailableChore{Chore: *chore, Assignment: &a})
		}
	}

	if p.ParentID == nil {
		return out, nil
	}

	pool, err := m.chores.ListPoolByCreator(ctx, *p.ParentID)
	if err != nil {
		return nil, err
	}
	for _, chore := range pool {
		existing, err := m.assignments.ForChore(ctx, chore.ID)
		if err != nil {
			return nil, err
		}
		// Claimable when unclaimed, or when the last claim's cooldown has
		// expired. A rejected claim stays with its claimant and is offered
		// through their own assignment above, not here.
		claimable := existing == nil ||
			(existing.Status == model.StatusApproved && recurrence.Derive(*existing, chore, now) == model.DerivedAvailable)
		if claimable {
			out = append(out, AvailableChore{Chore: chore})
		}
	}
	return out, nil
}

// UpdateChore applies parent-only edits. Mode is immutable; changing the
// topology means deleting the chore and creating a new one.
func (m *Manager) UpdateChore(ctx context.Context, p model.Principal, choreID int64, title, description string, rewardSpec model.RewardSpec, recurring bool, cooldownDays int) (*model.ChoreDefinition, error) {
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
	if err := reward.ValidateSpec(rewardSpec); err != nil {
		return nil, err
	}
	if cooldownDays < 0 {
		return nil, fmt.Errorf("cooldown days must not be negative")
	}
	return m.chores.UpdateDetails(ctx, choreID, title, description, rewardSpec, recurring, cooldownDays)
}

// DeleteChore removes a chore and cascades to its assignments.
func (m *Manager) DeleteChore(ctx context.Context, p model.Principal, choreID int64) error {
	chore, err := m.chores.GetByID(ctx, choreID)
	if err != nil {
		return err
	}
	if chore == nil {
		return model.ErrNotFound
	}
	if chore.CreatorID != p.ID {
		return model.ErrNotOwner
	}
	if err := m.chores.Delete(ctx, choreID); err != nil {
		return err
	}
	m.logger.Info("chore deleted", "chore_id", choreID, "creator_id", p.ID)
	return nil
}
