package flashdeck

import "strings"

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is a registered account (view, create and manage own sets)
	RoleUser UserRole = "User"
	// RoleAdmin is an administrator (full access, user management)
	RoleAdmin UserRole = "Admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants administrative access
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// IsAtLeast checks if the role is at least the minimum required role
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	return roleLevel(r) >= roleLevel(minRole)
}

func roleLevel(r UserRole) int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// ParseRole normalizes a string into a known role. The wire carries the
// role capitalized ("User"/"Admin") but we accept any casing.
func ParseRole(s string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// RoleForAdminFlag maps the stored is_admin column onto a role.
func RoleForAdminFlag(isAdmin bool) UserRole {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}
