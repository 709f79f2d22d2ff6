package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role is the closed set of caller roles. Anything outside the three
// constants is rejected at parse time so authorization switches never see an
// unknown role.
type Role string

// The three roles known to the portal.
const (
	RoleCitizen    Role = "citizen"
	RoleDepartment Role = "department"
	RoleAdmin      Role = "admin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCitizen, RoleDepartment, RoleAdmin:
		return Role(s), nil
	}
	return "", &ValidationError{Message: "invalid role", Fields: []string{"role"}}
}

// Identity is the authenticated caller as seen by the authorization policy.
// Department is only set for department staff.
type Identity struct {
	ID         primitive.ObjectID
	Role       Role
	Department primitive.ObjectID
}

// IsStaffOf reports whether the identity is department staff of the given
// department.
func (i Identity) IsStaffOf(departmentID primitive.ObjectID) bool {
	return i.Role == RoleDepartment && !i.Department.IsZero() && i.Department == departmentID
}
