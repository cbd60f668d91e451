package model

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Principal is the already-authenticated caller, resolved by the external
// identity subsystem. ParentID is set for child principals only.
type Principal struct {
	ID       int64  `json:"id"`
	Role     Role   `json:"role"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

func (p Principal) IsParent() bool { return p.Role == RoleParent }
func (p Principal) IsChild() bool  { return p.Role == RoleChild }
