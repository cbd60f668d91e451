package model

import "time"

// AssignmentMode controls how a chore definition fans out into assignments.
type AssignmentMode string

const (
	// ModeSingle: exactly one assignee; one assignment row reused across cycles.
	ModeSingle AssignmentMode = "single"
	// ModeMultiIndependent: one assignment per assignee, each cycling independently.
	ModeMultiIndependent AssignmentMode = "multi_independent"
	// ModeUnassignedPool: no assignments until a child claims the chore by completing it.
	ModeUnassignedPool AssignmentMode = "unassigned_pool"
)

func (m AssignmentMode) Valid() bool {
	switch m {
	case ModeSingle, ModeMultiIndependent, ModeUnassignedPool:
		return true
	}
	return false
}

type RewardKind string

const (
	RewardFixed RewardKind = "fixed"
	RewardRange RewardKind = "range"
)

// RewardSpec is a tagged variant: Fixed carries Amount, Range carries Min/Max.
// All amounts are integer cents.
type RewardSpec struct {
	Kind   RewardKind `json:"kind"`
	Amount int64      `json:"amount,omitempty"`
	Min    int64      `json:"min,omitempty"`
	Max    int64      `json:"max,omitempty"`
}

func FixedReward(amount int64) RewardSpec {
	return RewardSpec{Kind: RewardFixed, Amount: amount}
}

func RangeReward(min, max int64) RewardSpec {
	return RewardSpec{Kind: RewardRange, Min: min, Max: max}
}

type ChoreDefinition struct {
	ID           int64          `json:"id"`
	CreatorID    int64          `json:"creator_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Reward       RewardSpec     `json:"reward"`
	Mode         AssignmentMode `json:"mode"`
	Recurring    bool           `json:"recurring"`
	CooldownDays int            `json:"cooldown_days"`
	Disabled     bool           `json:"disabled"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
