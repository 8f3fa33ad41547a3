package auth

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleTrainer      Role = "trainer"
	RoleReceptionist Role = "receptionist"
	RoleMember       Role = "member"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTrainer, RoleReceptionist, RoleMember:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// IsStaff reports whether the role may be created by an admin.
func (r Role) IsStaff() bool {
	return r == RoleTrainer || r == RoleReceptionist || r == RoleAdmin
}

// Actor is who performs a request, resolved once at login.
type Actor struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	MemberID *int   `json:"member_id,omitempty"`
}
