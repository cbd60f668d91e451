package model

import "time"

// AssignmentStatus is the stored status. Cooldown is never stored; it is
// derived at read time from ApprovedAt and the chore's cooldown window.
type AssignmentStatus string

const (
	StatusAvailable AssignmentStatus = "available"
	StatusCompleted AssignmentStatus = "completed"
	StatusApproved  AssignmentStatus = "approved"
)

// DerivedStatus is what a caller actually sees once recurrence is in play.
type DerivedStatus string

const (
	// DerivedAvailable: the child can complete the assignment now.
	DerivedAvailable DerivedStatus = "available"
	// DerivedCompleted: done by the child, waiting on a parent decision.
	DerivedCompleted DerivedStatus = "completed"
	// DerivedCooldown: approved, recurring, and still inside the cooldown window.
	DerivedCooldown DerivedStatus = "cooldown"
	// DerivedDone: approved and non-recurring; never comes back.
	DerivedDone DerivedStatus = "done"
)

type Assignment struct {
	ID                  int64            `json:"id"`
	ChoreID             int64            `json:"chore_id"`
	AssigneeID          int64            `json:"assignee_id"`
	Mode                AssignmentMode   `json:"mode"`
	Status              AssignmentStatus `json:"status"`
	CompletedAt         *time.Time       `json:"completed_at"`
	ApprovedAt          *time.Time       `json:"approved_at"`
	ApprovedRewardValue *int64           `json:"approved_reward_value"`
	RejectionReason     string           `json:"rejection_reason,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
