// Package balance derives what a child is owed. There is no stored balance
// to invalidate: every read recomputes from the earnings ledger and manual
// adjustments inside one snapshot.
package balance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chorebank/internal/model"
	"chorebank/internal/store"
)

const txTimeout = 5 * time.Second

type Aggregator struct {
	db          *sql.DB
	ledger      *store.LedgerStore
	adjustments *store.AdjustmentStore
	logger      *slog.Logger
}

func NewAggregator(db *sql.DB, ledger *store.LedgerStore, adjustments *store.AdjustmentStore, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		db:          db,
		ledger:      ledger,
		adjustments: adjustments,
		logger:      logger,
	}
}

// ComputeBalance totals a child's earnings and adjustments. Both sums run in
// one transaction so a concurrent approval or adjustment is either fully
// counted or not counted at all. PaidOut is reserved and always zero today.
func (g *Aggregator) ComputeBalance(ctx context.Context, childID int64) (model.Balance, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Balance{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	earned, err := g.ledger.SumForChildTx(ctx, tx, childID)
	if err != nil {
		return model.Balance{}, err
	}
	adjusted, err := g.adjustments.SumForChildTx(ctx, tx, childID)
	if err != nil {
		return model.Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Balance{}, fmt.Errorf("commit tx: %w", err)
	}

	return model.Balance{
		ChildID:     childID,
		Earned:      earned,
		Adjustments: adjusted,
		PaidOut:     0,
		Total:       earned + adjusted,
	}, nil
}

// CreateAdjustment records a parent's manual balance correction. The amount
// is signed; the reason is required.
func (g *Aggregator) CreateAdjustment(ctx context.Context, p model.Principal, childID, amount int64, reason string) (*model.Adjustment, error) {
	if !p.IsParent() {
		return nil, model.ErrNotOwner
	}
	if strings.TrimSpace(reason) == "" {
		return nil, model.ErrInvalidReason
	}

	adj, err := g.adjustments.Create(ctx, childID, p.ID, amount, reason)
	if err != nil {
		return nil, err
	}
	g.logger.Info("adjustment recorded", "child_id", childID, "amount", amount, "parent_id", p.ID)
	return adj, nil
}

// Statement lists everything contributing to a child's balance.
type Statement struct {
	Balance     model.Balance       `json:"balance"`
	Earnings    []model.RewardEntry `json:"earnings"`
	Adjustments []model.Adjustment  `json:"adjustments"`
}

func (g *Aggregator) ComputeStatement(ctx context.Context, childID int64) (*Statement, error) {
	bal, err := g.ComputeBalance(ctx, childID)
	if err != nil {
		return nil, err
	}
	earnings, err := g.ledger.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	adjustments, err := g.adjustments.ListByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	return &Statement{Balance: bal, Earnings: earnings, Adjustments: adjustments}, nil
}
