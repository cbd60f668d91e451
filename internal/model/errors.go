package model

import "errors"

// Domain errors surfaced to callers. All are terminal: retrying the same
// call cannot succeed. Transient storage contention is handled internally
// and never escapes as one of these.
var (
	// ErrNotFound is returned when a chore, assignment, or child has no record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidAssigneeCount is returned when the assignee list does not fit
	// the chore's assignment mode.
	ErrInvalidAssigneeCount = errors.New("invalid assignee count for assignment mode")

	// ErrInvalidState is returned for an illegal lifecycle transition.
	ErrInvalidState = errors.New("invalid assignment state for this action")

	// ErrNotOwner is returned when the caller does not own the chore.
	ErrNotOwner = errors.New("caller does not own this chore")

	// ErrNotAssignee is returned when the caller is not the assignment's child.
	ErrNotAssignee = errors.New("caller is not the assignee")

	// ErrAlreadyClaimed is returned to the losers of a pool-claim race. Their
	// input was valid; another child simply got there first.
	ErrAlreadyClaimed = errors.New("chore already claimed")

	// ErrRewardOutOfRange is returned when an approval value falls outside the
	// chore's reward range, or a range approval provides no value.
	ErrRewardOutOfRange = errors.New("reward value out of range")

	// ErrChoreDisabled is returned when completing or claiming a disabled chore.
	ErrChoreDisabled = errors.New("chore is disabled")

	// ErrInvalidReason is returned when a rejection or adjustment reason is empty.
	ErrInvalidReason = errors.New("reason must not be empty")

	// ErrInvalidRewardRange is returned at chore creation when min >= max.
	ErrInvalidRewardRange = errors.New("reward range min must be less than max")
)
