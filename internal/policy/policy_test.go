package policy

import (
	"testing"

	"github.com/campuscare/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

var (
	admin     = Actor{ID: 1, Role: models.RoleAdmin}
	owner     = Actor{ID: 2, Role: models.RoleStudent}
	other     = Actor{ID: 3, Role: models.RoleStudent}
	library   = Actor{ID: 4, Role: models.RoleDepartment, Department: "Library"}
	hostel    = Actor{ID: 5, Role: models.RoleDepartment, Department: "Hostel"}
	noDept    = Actor{ID: 6, Role: models.RoleDepartment}
	spoofedID = Actor{ID: 2, Role: models.RoleDepartment, Department: "Library"}
)

func TestCanUpdate(t *testing.T) {
	assigned := &models.Complaint{ID: 10, StudentID: owner.ID, Department: strPtr("Library")}
	unassigned := &models.Complaint{ID: 11, StudentID: owner.ID}

	tests := []struct {
		name      string
		actor     Actor
		complaint *models.Complaint
		want      bool
	}{
		{"admin assigned", admin, assigned, true},
		{"admin unassigned", admin, unassigned, true},
		{"matching department", library, assigned, true},
		{"other department", hostel, assigned, false},
		{"department on unassigned", noDept, unassigned, false},
		{"owning student", owner, assigned, false},
		{"other student", other, assigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUpdate(tt.actor, tt.complaint))
		})
	}
}

func TestCanDelete(t *testing.T) {
	c := &models.Complaint{ID: 3, StudentID: owner.ID, Department: strPtr("Library")}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", admin, true},
		{"owner", owner, true},
		{"other student", other, false},
		{"matching department", library, false},
		{"department staff sharing the owner id", spoofedID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDelete(tt.actor, c))
		})
	}
}

func TestCanView(t *testing.T) {
	c := &models.Complaint{ID: 3, StudentID: owner.ID, Department: strPtr("Library")}

	assert.True(t, CanView(admin, c))
	assert.True(t, CanView(owner, c))
	assert.True(t, CanView(library, c))
	assert.False(t, CanView(other, c))
	assert.False(t, CanView(hostel, c))
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, IsAdmin(admin))
	assert.False(t, IsAdmin(owner))
	assert.True(t, IsStudent(owner))
	assert.False(t, IsStudent(library))
	assert.True(t, CanViewDepartmentQueue(library))
	assert.False(t, CanViewDepartmentQueue(admin))
	assert.True(t, CanAssign(admin))
	assert.False(t, CanAssign(library))
}
