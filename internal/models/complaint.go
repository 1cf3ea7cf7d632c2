package models

import (
	"time"
)

type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "pending"
	StatusInProgress ComplaintStatus = "in-progress"
	StatusResolved   ComplaintStatus = "resolved"
	StatusRejected   ComplaintStatus = "rejected"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []ComplaintStatus{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

func ParseStatus(s string) (ComplaintStatus, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Terminal reports whether no transition leaves s.
func (s ComplaintStatus) Terminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to ComplaintStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusRejected
	case StatusInProgress:
		return to == StatusResolved
	default:
		return false
	}
}

type Complaint struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"not null"`
	Description     string          `json:"description" gorm:"type:text;not null"`
	ImageURL        *string         `json:"imageUrl"`
	Status          ComplaintStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Department      *string         `json:"department" gorm:"index"`
	Location        *string         `json:"location"`
	AssignmentNotes *string         `json:"assignmentNotes" gorm:"type:text"`
	ResolutionNotes *string         `json:"resolutionNotes" gorm:"type:text"`
	RejectionReason *string         `json:"rejectionReason" gorm:"type:text"`
	Latitude        *float64        `json:"latitude"`
	Longitude       *float64        `json:"longitude"`
	StudentID       uint            `json:"studentId,omitempty" gorm:"not null;index"`
	Student         *User           `json:"student,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	Upvotes []Upvote `json:"-" gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE"`
}

func (Complaint) TableName() string {
	return "complaints"
}

// DepartmentName returns the assigned department or "" when unassigned.
func (c Complaint) DepartmentName() string {
	if c.Department == nil {
		return ""
	}
	return *c.Department
}

// ComplaintView is the list representation returned to clients.
type ComplaintView struct {
	Complaint
	StudentEmail string `json:"studentEmail,omitempty"`
	UpvoteCount  int64  `json:"upvoteCount"`
	HasUpvoted   bool   `json:"hasUpvoted"`
}
