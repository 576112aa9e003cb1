package models

// Identity is the resolved caller of a request.
type Identity struct {
	EmployeeID string
	Role       Role
}

// IsAdmin reports whether the caller holds the Admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
