// Package policy holds the pure authorization decisions for the portal.
// Every decision is an exhaustive switch over the closed role set; a role
// the switch does not name is denied, never silently allowed.
package policy

import "github.com/civiclens/civic-complaints-api/models"

// CanReadComplaint decides read access to a single complaint. Citizens see
// only complaints they authored, department staff see complaints routed to
// their own department, admins see everything.
func CanReadComplaint(identity models.Identity, complaint *models.Complaint) bool {
	switch identity.Role {
	case models.RoleCitizen:
		return complaint.Citizen == identity.ID
	case models.RoleDepartment:
		return !complaint.Department.IsZero() && identity.IsStaffOf(complaint.Department)
	case models.RoleAdmin:
		return true
	}
	return false
}

// CanUpdateStatus decides who may move a complaint through its lifecycle.
// Citizens never; department staff only within their own department.
func CanUpdateStatus(identity models.Identity, complaint *models.Complaint) bool {
	switch identity.Role {
	case models.RoleCitizen:
		return false
	case models.RoleDepartment:
		return !complaint.Department.IsZero() && identity.IsStaffOf(complaint.Department)
	case models.RoleAdmin:
		return true
	}
	return false
}

// CanComment decides comment access; commenting requires read access.
func CanComment(identity models.Identity, complaint *models.Complaint) bool {
	return CanReadComplaint(identity, complaint)
}

// CanVote decides vote access. Voting is open to any authenticated identity
// that can read the complaint.
func CanVote(identity models.Identity, complaint *models.Complaint) bool {
	return CanReadComplaint(identity, complaint)
}

// CanManageDepartments gates department create/update/delete/assign.
func CanManageDepartments(identity models.Identity) bool {
	return identity.Role == models.RoleAdmin
}

// CanManageUsers gates user listing, status toggles and deletion.
func CanManageUsers(identity models.Identity) bool {
	return identity.Role == models.RoleAdmin
}

// CanViewStats decides stats access. Department staff get a department
// scope, admins an unscoped view, citizens nothing.
func CanViewStats(identity models.Identity) bool {
	switch identity.Role {
	case models.RoleDepartment, models.RoleAdmin:
		return true
	}
	return false
}

// StatsScope returns the complaint filter scope for the stats endpoints:
// the staff department for department identities, zero (unscoped) for
// admins. Staff without a department assignment stay scoped to the zero
// reference, which matches no complaints, never the system-wide view.
func StatsScope(identity models.Identity) (scoped bool, department interface{}) {
	if identity.Role == models.RoleDepartment {
		return true, identity.Department
	}
	return false, nil
}

// CanSubscribeFeed gates the live event feed to staff and admin dashboards.
func CanSubscribeFeed(identity models.Identity) bool {
	switch identity.Role {
	case models.RoleDepartment, models.RoleAdmin:
		return true
	}
	return false
}
