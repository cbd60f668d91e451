package model

import "time"

// RewardEntry is one approved payout, recorded when a parent approves a
// completed assignment. Entries are append-only: they survive recurrence
// resets and pool-assignment deletion, so balances never lose history.
type RewardEntry struct {
	ID           int64     `json:"id"`
	ChoreID      int64     `json:"chore_id"`
	AssignmentID int64     `json:"assignment_id"`
	ChildID      int64     `json:"child_id"`
	ApprovedBy   int64     `json:"approved_by"`
	Amount       int64     `json:"amount"`
	ApprovedAt   time.Time `json:"approved_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Balance is the derived amount owed to a child.
type Balance struct {
	ChildID     int64 `json:"child_id"`
	Earned      int64 `json:"earned"`
	Adjustments int64 `json:"adjustments"`
	PaidOut     int64 `json:"paid_out"`
	Total       int64 `json:"total"`
}
