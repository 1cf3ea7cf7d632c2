package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = "admin"
	RoleDepartment Role = "department"
)

// ParseRole normalizes a role string ("Admin", " admin ") into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleAdmin, RoleDepartment:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null"`
	Password   string    `json:"-" gorm:"not null"`
	Role       Role      `json:"role" gorm:"type:varchar(20);not null;default:'student'"`
	Department *string   `json:"department" gorm:"index"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// DepartmentName returns the department or "" when unset.
func (u User) DepartmentName() string {
	if u.Department == nil {
		return ""
	}
	return *u.Department
}
