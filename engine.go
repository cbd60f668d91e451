// Package chorebank is a family chore and allowance engine: chore templates
// fan out into per-child assignments, children complete them, parents approve
// or reject, and balances are derived from an append-only earnings ledger.
// Authentication, HTTP framing, and rendering live with the caller; this
// package only enforces ownership and assignee checks on an
// already-resolved principal.
package chorebank

import (
	"database/sql"
	"log/slog"

	"chorebank/internal/assignment"
	"chorebank/internal/balance"
	"chorebank/internal/database"
	"chorebank/internal/lifecycle"
	"chorebank/internal/store"
)

// Engine wires the stores and components over one database handle.
type Engine struct {
	db *sql.DB

	// Chores creates templates and assignments and handles pool claims.
	Chores *assignment.Manager
	// Lifecycle moves assignments through complete, approve, and reject.
	Lifecycle *lifecycle.Machine
	// Balances derives what each child is owed.
	Balances *balance.Aggregator
}

// Open opens (and migrates) the database at path and wires an Engine on it.
func Open(path string, logger *slog.Logger) (*Engine, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	return New(db, logger), nil
}

// New wires an Engine over an already-open database.
func New(db *sql.DB, logger *slog.Logger) *Engine {
	chores := store.NewChoreStore(db)
	assignments := store.NewAssignmentStore(db)
	ledger := store.NewLedgerStore(db)
	adjustments := store.NewAdjustmentStore(db)

	return &Engine{
		db:        db,
		Chores:    assignment.NewManager(db, chores, assignments, logger.With("component", "assignment")),
		Lifecycle: lifecycle.NewMachine(db, chores, assignments, ledger, logger.With("component", "lifecycle")),
		Balances:  balance.NewAggregator(db, ledger, adjustments, logger.With("component", "balance")),
	}
}

func (e *Engine) Close() error {
	return e.db.Close()
}
