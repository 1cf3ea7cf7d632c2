// Package policy holds the authorization predicates shared by the HTTP guards
// and the complaint service. Every function is pure.
package policy

import "github.com/campuscare/backend/internal/models"

// Actor is the authenticated identity of a request. Role is parsed once when
// the token is verified.
type Actor struct {
	ID         uint
	Email      string
	Role       models.Role
	Department string
}

func IsAdmin(a Actor) bool {
	return a.Role == models.RoleAdmin
}

func IsStudent(a Actor) bool {
	return a.Role == models.RoleStudent
}

func IsDepartment(a Actor) bool {
	return a.Role == models.RoleDepartment
}

// CanUpdate allows admins, and department staff whose department matches the
// complaint's. Unassigned complaints only match admins.
func CanUpdate(a Actor, c *models.Complaint) bool {
	if IsAdmin(a) {
		return true
	}
	return IsDepartment(a) && a.Department != "" && a.Department == c.DepartmentName()
}

// CanDelete allows admins and the student who filed the complaint.
func CanDelete(a Actor, c *models.Complaint) bool {
	if IsAdmin(a) {
		return true
	}
	return IsStudent(a) && c.StudentID == a.ID
}

// CanView allows admins, the owner, and the assigned department.
func CanView(a Actor, c *models.Complaint) bool {
	return CanDelete(a, c) || CanUpdate(a, c)
}

// CanViewDepartmentQueue allows department staff; the queue is scoped to
// their own department by the caller.
func CanViewDepartmentQueue(a Actor) bool {
	return IsDepartment(a)
}

// CanAssign covers pending -> in-progress and pending -> rejected.
func CanAssign(a Actor) bool {
	return IsAdmin(a)
}
