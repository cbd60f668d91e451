package balance

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"chorebank/internal/database"
	"chorebank/internal/logging"
	"chorebank/internal/model"
	"chorebank/internal/store"
)

var (
	parent = model.Principal{ID: 1, Role: model.RoleParent}
)

func setupAggregator(t *testing.T) (*Aggregator, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logging.SetupWriter("error", io.Discard)
	g := NewAggregator(db, store.NewLedgerStore(db), store.NewAdjustmentStore(db), logger)
	return g, db
}

func earn(t *testing.T, db *sql.DB, childID, amount int64) {
	t.Helper()
	ctx := context.Background()
	ls := store.NewLedgerStore(db)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if _, err := ls.InsertTx(ctx, tx, 1, 1, childID, 1, amount, time.Now()); err != nil {
		t.Fatalf("insert entry: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestComputeBalanceEmpty(t *testing.T) {
	g, _ := setupAggregator(t)

	bal, err := g.ComputeBalance(context.Background(), 10)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 0 || bal.Earned != 0 || bal.Adjustments != 0 {
		t.Errorf("balance = %+v, want all zero", bal)
	}
}

func TestComputeBalanceSumsEarningsAndAdjustments(t *testing.T) {
	g, db := setupAggregator(t)
	ctx := context.Background()

	earn(t, db, 10, 500)
	earn(t, db, 10, 650)
	earn(t, db, 11, 9999)

	if _, err := g.CreateAdjustment(ctx, parent, 10, -200, "broke a vase"); err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	if _, err := g.CreateAdjustment(ctx, parent, 10, 100, "bonus"); err != nil {
		t.Fatalf("create adjustment: %v", err)
	}

	bal, err := g.ComputeBalance(ctx, 10)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Earned != 1150 {
		t.Errorf("earned = %d, want 1150", bal.Earned)
	}
	if bal.Adjustments != -100 {
		t.Errorf("adjustments = %d, want -100", bal.Adjustments)
	}
	if bal.PaidOut != 0 {
		t.Errorf("paid_out = %d, want 0 (reserved)", bal.PaidOut)
	}
	if bal.Total != 1050 {
		t.Errorf("total = %d, want 1050", bal.Total)
	}
}

func TestComputeBalanceOrderIndependent(t *testing.T) {
	g, db := setupAggregator(t)
	ctx := context.Background()

	// Interleave earnings and adjustments; only the sums matter.
	earn(t, db, 10, 300)
	if _, err := g.CreateAdjustment(ctx, parent, 10, 50, "a"); err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	earn(t, db, 10, 200)
	if _, err := g.CreateAdjustment(ctx, parent, 10, -75, "b"); err != nil {
		t.Fatalf("create adjustment: %v", err)
	}
	earn(t, db, 10, 100)

	bal, err := g.ComputeBalance(ctx, 10)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 575 {
		t.Errorf("total = %d, want 575", bal.Total)
	}
}

func TestCreateAdjustmentValidation(t *testing.T) {
	g, _ := setupAggregator(t)
	ctx := context.Background()

	childPrincipal := model.Principal{ID: 10, Role: model.RoleChild}
	if _, err := g.CreateAdjustment(ctx, childPrincipal, 11, 100, "nope"); !errors.Is(err, model.ErrNotOwner) {
		t.Errorf("child caller: error = %v, want ErrNotOwner", err)
	}

	for _, reason := range []string{"", "  "} {
		if _, err := g.CreateAdjustment(ctx, parent, 10, 100, reason); !errors.Is(err, model.ErrInvalidReason) {
			t.Errorf("reason %q: error = %v, want ErrInvalidReason", reason, err)
		}
	}
}

func TestComputeStatement(t *testing.T) {
	g, db := setupAggregator(t)
	ctx := context.Background()

	earn(t, db, 10, 500)
	if _, err := g.CreateAdjustment(ctx, parent, 10, -100, "late for dinner"); err != nil {
		t.Fatalf("create adjustment: %v", err)
	}

	st, err := g.ComputeStatement(ctx, 10)
	if err != nil {
		t.Fatalf("compute statement: %v", err)
	}
	if len(st.Earnings) != 1 {
		t.Errorf("earnings = %d, want 1", len(st.Earnings))
	}
	if len(st.Adjustments) != 1 {
		t.Errorf("adjustments = %d, want 1", len(st.Adjustments))
	}
	if st.Balance.Total != 400 {
		t.Errorf("total = %d, want 400", st.Balance.Total)
	}
}
