package store

import (
	"context"
	"errors"

	"github.com/campuscare/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrStaleStatus is returned by UpdateComplaintStatus when the complaint
	// is no longer in the expected status.
	ErrStaleStatus = errors.New("complaint status changed concurrently")
)

// ComplaintFilter narrows ListComplaints. Nil fields are ignored.
type ComplaintFilter struct {
	StudentID  *uint
	Department *string
	Status     *models.ComplaintStatus
}

type DepartmentCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// UpvoteSummary is the per-complaint upvote tally for one viewer.
type UpvoteSummary struct {
	Count      int64
	HasUpvoted bool
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// FindDepartmentUser returns one staff account of the department.
	FindDepartmentUser(ctx context.Context, department string) (*models.User, error)
	CountAdmins(ctx context.Context) (int64, error)
	// DeleteUser removes the user together with their complaints and upvotes.
	DeleteUser(ctx context.Context, id uint) error
}

type ComplaintStore interface {
	CreateComplaint(ctx context.Context, complaint *models.Complaint) error
	// GetComplaint loads the complaint with its Student.
	GetComplaint(ctx context.Context, id uint) (*models.Complaint, error)
	// ListComplaints returns matching complaints newest first, with Student.
	ListComplaints(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, error)
	// UpdateComplaintStatus applies fields only if the complaint is still in
	// status from.
	UpdateComplaintStatus(ctx context.Context, id uint, from models.ComplaintStatus, fields map[string]interface{}) error
	// DeleteComplaint removes the complaint and its upvotes atomically.
	DeleteComplaint(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error)
	CountByDepartment(ctx context.Context) ([]DepartmentCount, error)
}

type UpvoteStore interface {
	FindUpvote(ctx context.Context, userID, complaintID uint) (*models.Upvote, error)
	CreateUpvote(ctx context.Context, upvote *models.Upvote) error
	DeleteUpvote(ctx context.Context, id uint) error
	UpvoteSummaries(ctx context.Context, complaintIDs []uint, viewerID uint) (map[uint]UpvoteSummary, error)
}

type Store interface {
	UserStore
	ComplaintStore
	UpvoteStore
	Ping(ctx context.Context) error
}
