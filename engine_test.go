package chorebank

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"chorebank/internal/assignment"
	"chorebank/internal/logging"
	"chorebank/internal/model"
)

var (
	mom   = model.Principal{ID: 1, Role: model.RoleParent}
	alice = model.Principal{ID: 10, Role: model.RoleChild, ParentID: ptr(int64(1))}
	bob   = model.Principal{ID: 11, Role: model.RoleChild, ParentID: ptr(int64(1))}
)

func ptr[T any](v T) *T { return &v }

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(":memory:", logging.SetupWriter("error", io.Discard))
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func assignmentFor(t *testing.T, e *Engine, child model.Principal) *model.Assignment {
	t.Helper()
	list, err := e.Chores.ListAvailableFor(context.Background(), child)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	for _, ac := range list {
		if ac.Assignment != nil {
			return ac.Assignment
		}
	}
	t.Fatal("no assignment available")
	return nil
}

func TestFixedRewardFlow(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	if _, err := e.Chores.CreateChore(ctx, mom, assignment.CreateChoreParams{
		Title:       "Make bed",
		Reward:      model.FixedReward(500),
		Mode:        model.ModeSingle,
		AssigneeIDs: []int64{alice.ID},
	}); err != nil {
		t.Fatalf("create chore: %v", err)
	}

	a := assignmentFor(t, e, alice)
	if _, err := e.Lifecycle.Complete(ctx, alice, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Parent approves without naming a value; the fixed amount applies.
	if _, err := e.Lifecycle.Approve(ctx, mom, a.ID, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	bal, err := e.Balances.ComputeBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 500 {
		t.Errorf("balance = %d, want 500", bal.Total)
	}
}

func TestRangeRewardFlow(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	if _, err := e.Chores.CreateChore(ctx, mom, assignment.CreateChoreParams{
		Title:       "Clean garage",
		Reward:      model.RangeReward(300, 800),
		Mode:        model.ModeSingle,
		AssigneeIDs: []int64{alice.ID},
	}); err != nil {
		t.Fatalf("create chore: %v", err)
	}

	a := assignmentFor(t, e, alice)
	if _, err := e.Lifecycle.Complete(ctx, alice, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := e.Lifecycle.Approve(ctx, mom, a.ID, ptr(int64(650))); err != nil {
		t.Fatalf("approve: %v", err)
	}

	bal, err := e.Balances.ComputeBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 650 {
		t.Errorf("balance = %d, want 650", bal.Total)
	}

	if _, err := e.Lifecycle.Approve(ctx, mom, a.ID, ptr(int64(650))); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("re-approve: error = %v, want ErrInvalidState", err)
	}
}

func TestRangeRewardOutOfRangeLeavesBalanceUnchanged(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	if _, err := e.Chores.CreateChore(ctx, mom, assignment.CreateChoreParams{
		Title:       "Clean garage",
		Reward:      model.RangeReward(300, 800),
		Mode:        model.ModeSingle,
		AssigneeIDs: []int64{alice.ID},
	}); err != nil {
		t.Fatalf("create chore: %v", err)
	}

	a := assignmentFor(t, e, alice)
	if _, err := e.Lifecycle.Complete(ctx, alice, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := e.Lifecycle.Approve(ctx, mom, a.ID, ptr(int64(1000))); !errors.Is(err, model.ErrRewardOutOfRange) {
		t.Fatalf("error = %v, want ErrRewardOutOfRange", err)
	}

	bal, err := e.Balances.ComputeBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 0 {
		t.Errorf("balance = %d, want 0", bal.Total)
	}

	status, err := e.Lifecycle.DerivedStatus(ctx, a.ID)
	if err != nil {
		t.Fatalf("derived status: %v", err)
	}
	if status != model.DerivedCompleted {
		t.Errorf("status = %q, want still %q", status, model.DerivedCompleted)
	}
}

func TestPoolChoreConcurrentClaim(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chore, err := e.Chores.CreateChore(ctx, mom, assignment.CreateChoreParams{
		Title:  "Walk the dog",
		Reward: model.FixedReward(300),
		Mode:   model.ModeUnassignedPool,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	claims := make([]*model.Assignment, 2)
	for i, p := range []model.Principal{alice, bob} {
		wg.Add(1)
		go func(i int, p model.Principal) {
			defer wg.Done()
			claims[i], results[i] = e.Chores.ClaimPoolChore(ctx, p, chore.ID)
		}(i, p)
	}
	wg.Wait()

	var winner *model.Assignment
	var wins, losses int
	for i := range results {
		switch {
		case results[i] == nil:
			wins++
			winner = claims[i]
		case errors.Is(results[i], model.ErrAlreadyClaimed):
			losses++
		default:
			t.Errorf("unexpected error: %v", results[i])
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins = %d, losses = %d, want 1 and 1", wins, losses)
	}
	if winner.Status != model.StatusCompleted {
		t.Errorf("winner status = %q, want %q", winner.Status, model.StatusCompleted)
	}

	// The winner's claim goes through the normal approval path.
	if _, err := e.Lifecycle.Approve(ctx, mom, winner.ID, nil); err != nil {
		t.Fatalf("approve claim: %v", err)
	}
	bal, err := e.Balances.ComputeBalance(ctx, winner.AssigneeID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 300 {
		t.Errorf("balance = %d, want 300", bal.Total)
	}
}

func TestRejectionNeverLeaksReward(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	if _, err := e.Chores.CreateChore(ctx, mom, assignment.CreateChoreParams{
		Title:       "Sweep porch",
		Reward:      model.FixedReward(400),
		Mode:        model.ModeSingle,
		AssigneeIDs: []int64{alice.ID},
	}); err != nil {
		t.Fatalf("create chore: %v", err)
	}

	a := assignmentFor(t, e, alice)
	if _, err := e.Lifecycle.Complete(ctx, alice, a.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := e.Lifecycle.Reject(ctx, mom, a.ID, "missed a spot"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	bal, err := e.Balances.ComputeBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 0 {
		t.Errorf("balance after rejection = %d, want 0", bal.Total)
	}

	if _, err := e.Lifecycle.Complete(ctx, alice, a.ID); err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if _, err := e.Lifecycle.Approve(ctx, mom, a.ID, nil); err != nil {
		t.Fatalf("approve: %v", err)
	}

	bal, err = e.Balances.ComputeBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 400 {
		t.Errorf("balance = %d, want 400, same as a direct approval", bal.Total)
	}
}

func TestRecurringEarningsAccumulateAcrossCycles(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start
	e.Chores.Now = func() time.Time { return now }
	e.Lifecycle.Now = func() time.Time { return now }

	if _, err := e.Chores.CreateChore(ctx, mom, assignment.CreateChoreParams{
		Title:        "Empty dishwasher",
		Reward:       model.FixedReward(250),
		Mode:         model.ModeSingle,
		Recurring:    true,
		CooldownDays: 1,
		AssigneeIDs:  []int64{alice.ID},
	}); err != nil {
		t.Fatalf("create chore: %v", err)
	}
	a := assignmentFor(t, e, alice)

	for cycle := 0; cycle < 3; cycle++ {
		if _, err := e.Lifecycle.Complete(ctx, alice, a.ID); err != nil {
			t.Fatalf("cycle %d complete: %v", cycle, err)
		}
		if _, err := e.Lifecycle.Approve(ctx, mom, a.ID, nil); err != nil {
			t.Fatalf("cycle %d approve: %v", cycle, err)
		}
		now = now.Add(24 * time.Hour)
	}

	bal, err := e.Balances.ComputeBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if bal.Total != 750 {
		t.Errorf("balance = %d, want 750 across three cycles", bal.Total)
	}
}
