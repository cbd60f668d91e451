package model

import "time"

// Adjustment is a manual, signed balance correction recorded by a parent.
// Immutable once created.
type Adjustment struct {
	ID        int64     `json:"id"`
	ChildID   int64     `json:"child_id"`
	ParentID  int64     `json:"parent_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
