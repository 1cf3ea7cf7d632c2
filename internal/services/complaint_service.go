package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/mail"
	"github.com/campuscare/backend/internal/metrics"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/policy"
	"github.com/campuscare/backend/internal/store"
	"github.com/campuscare/backend/internal/uploads"
)

type CreateComplaintRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`

	// Image holds the raw upload, if any. It is never bound from JSON.
	Image     []byte `json:"-"`
	ImageName string `json:"-"`
}

// TransitionRequest moves a complaint to Status. Only the fields of the
// target edge may be set; blank strings count as unset.
type TransitionRequest struct {
	Status          string  `json:"status"`
	Department      *string `json:"department"`
	AssignmentNotes *string `json:"assignmentNotes"`
	ResolutionNotes *string `json:"resolutionNotes"`
	RejectionReason *string `json:"rejectionReason"`
}

// ListFilter is the admin list query. Empty fields are ignored.
type ListFilter struct {
	Status     string
	Department string
}

type UpvoteAction string

const (
	UpvoteAdded   UpvoteAction = "added"
	UpvoteRemoved UpvoteAction = "removed"
)

type UpvoteResult struct {
	Action      UpvoteAction `json:"action"`
	UpvoteCount int64        `json:"upvoteCount"`
	HasUpvoted  bool         `json:"hasUpvoted"`
}

type ComplaintService struct {
	store    store.Store
	notifier Enqueuer
	images   uploads.Store
	stats    StatsCache
}

func NewComplaintService(st store.Store, notifier Enqueuer, images uploads.Store, stats StatsCache) *ComplaintService {
	if stats == nil {
		stats = NoopStatsCache{}
	}
	return &ComplaintService{
		store:    st,
		notifier: notifier,
		images:   images,
		stats:    stats,
	}
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return trimmed(*s)
}

func validateGeo(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrValidation)
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	return nil
}

// Create files a new pending complaint for the acting student.
func (s *ComplaintService) Create(ctx context.Context, actor policy.Actor, req CreateComplaintRequest) (*models.Complaint, error) {
	if !policy.IsStudent(actor) {
		return nil, fmt.Errorf("%w: only students can submit complaints", ErrForbidden)
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if err := validateGeo(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		Title:       title,
		Description: description,
		Location:    trimmed(req.Location),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Status:      models.StatusPending,
		StudentID:   actor.ID,
	}

	if len(req.Image) > 0 {
		if s.images == nil {
			return nil, fmt.Errorf("%w: image uploads are disabled", ErrValidation)
		}
		url, err := s.images.Save(ctx, req.ImageName, req.Image)
		if err != nil {
			if errors.Is(err, uploads.ErrNotImage) || errors.Is(err, uploads.ErrTooLarge) {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return nil, err
		}
		complaint.ImageURL = &url
	}

	if err := s.store.CreateComplaint(ctx, complaint); err != nil {
		return nil, fromStore(err, "student")
	}
	s.stats.Invalidate(ctx)

	logger.WithComplaint(complaint.ID, actor.ID).Info("Complaint created")
	s.notify(KindReceived, actor.Email, "Complaint Received", "received", complaint)
	return complaint, nil
}

// Get returns one complaint to an admin, its owner, or the assigned
// department.
func (s *ComplaintService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.ComplaintView, error) {
	complaint, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, fromStore(err, "complaint")
	}
	if !policy.CanView(actor, complaint) {
		return nil, ErrForbidden
	}
	views, err := s.views(ctx, []models.Complaint{*complaint}, actor, true)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ComplaintService) ListAll(ctx context.Context, actor policy.Actor, f ListFilter) ([]models.ComplaintView, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	var filter store.ComplaintFilter
	if f.Status != "" {
		status, ok := models.ParseStatus(f.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
		}
		filter.Status = &status
	}
	if d := strings.TrimSpace(f.Department); d != "" {
		filter.Department = &d
	}
	return s.list(ctx, actor, filter, true)
}

func (s *ComplaintService) ListMine(ctx context.Context, actor policy.Actor) ([]models.ComplaintView, error) {
	if !policy.IsStudent(actor) {
		return nil, ErrForbidden
	}
	return s.list(ctx, actor, store.ComplaintFilter{StudentID: &actor.ID}, true)
}

func (s *ComplaintService) ListDepartment(ctx context.Context, actor policy.Actor) ([]models.ComplaintView, error) {
	if !policy.CanViewDepartmentQueue(actor) {
		return nil, ErrForbidden
	}
	if actor.Department == "" {
		return []models.ComplaintView{}, nil
	}
	return s.list(ctx, actor, store.ComplaintFilter{Department: &actor.Department}, true)
}

// ListPublic is the campus-wide feed of work in progress. The submitter is
// withheld.
func (s *ComplaintService) ListPublic(ctx context.Context, actor policy.Actor) ([]models.ComplaintView, error) {
	status := models.StatusInProgress
	return s.list(ctx, actor, store.ComplaintFilter{Status: &status}, false)
}

func (s *ComplaintService) list(ctx context.Context, actor policy.Actor, filter store.ComplaintFilter, identify bool) ([]models.ComplaintView, error) {
	complaints, err := s.store.ListComplaints(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, complaints, actor, identify)
}

func (s *ComplaintService) views(ctx context.Context, complaints []models.Complaint, viewer policy.Actor, identify bool) ([]models.ComplaintView, error) {
	views := make([]models.ComplaintView, 0, len(complaints))
	if len(complaints) == 0 {
		return views, nil
	}

	ids := make([]uint, len(complaints))
	for i, c := range complaints {
		ids[i] = c.ID
	}
	summaries, err := s.store.UpvoteSummaries(ctx, ids, viewer.ID)
	if err != nil {
		return nil, err
	}

	for _, c := range complaints {
		view := models.ComplaintView{
			UpvoteCount: summaries[c.ID].Count,
			HasUpvoted:  summaries[c.ID].HasUpvoted,
		}
		if !identify {
			c.StudentID = 0
		} else if c.Student != nil {
			view.StudentEmail = c.Student.Email
		}
		c.Student = nil
		view.Complaint = c
		views = append(views, view)
	}
	return views, nil
}

// transitionFields returns the columns written by the from -> to edge.
func transitionFields(to models.ComplaintStatus, req TransitionRequest) (map[string]interface{}, error) {
	department := trimmedPtr(req.Department)
	assignment := trimmedPtr(req.AssignmentNotes)
	resolution := trimmedPtr(req.ResolutionNotes)
	reason := trimmedPtr(req.RejectionReason)

	disallow := func(name string, v *string) error {
		if v != nil {
			return fmt.Errorf("%w: field %s is not allowed when moving to %s", ErrValidation, name, to)
		}
		return nil
	}

	fields := map[string]interface{}{"status": to}
	var err error
	switch to {
	case models.StatusInProgress:
		if department == nil {
			return nil, fmt.Errorf("%w: department is required to start work on a complaint", ErrValidation)
		}
		err = errors.Join(disallow("resolutionNotes", resolution), disallow("rejectionReason", reason))
		fields["department"] = department
		fields["assignment_notes"] = assignment
	case models.StatusRejected:
		if reason == nil {
			return nil, fmt.Errorf("%w: rejectionReason is required to reject a complaint", ErrValidation)
		}
		err = errors.Join(disallow("department", department), disallow("assignmentNotes", assignment), disallow("resolutionNotes", resolution))
		fields["rejection_reason"] = reason
	case models.StatusResolved:
		err = errors.Join(disallow("department", department), disallow("assignmentNotes", assignment), disallow("rejectionReason", reason))
		fields["resolution_notes"] = resolution
	}
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// Transition moves a complaint along its lifecycle and notifies the
// submitter. Moving to in-progress also notifies the assigned department.
func (s *ComplaintService) Transition(ctx context.Context, actor policy.Actor, id uint, req TransitionRequest) (*models.Complaint, error) {
	complaint, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, fromStore(err, "complaint")
	}
	if !policy.CanUpdate(actor, complaint) {
		return nil, ErrForbidden
	}

	to, ok := models.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	from := complaint.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if from == models.StatusPending && !policy.CanAssign(actor) {
		return nil, fmt.Errorf("%w: only admins can assign or reject complaints", ErrForbidden)
	}

	fields, err := transitionFields(to, req)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateComplaintStatus(ctx, id, from, fields); err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: complaint is no longer %s", ErrInvalidTransition, from)
		}
		return nil, err
	}
	s.stats.Invalidate(ctx)
	metrics.RecordTransition(string(from), string(to))

	updated, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, fromStore(err, "complaint")
	}

	logger.WithComplaint(id, actor.ID).WithFields(map[string]interface{}{
		"from": from,
		"to":   to,
	}).Info("Complaint status changed")

	s.notifyTransition(ctx, updated)
	return updated, nil
}

func (s *ComplaintService) notifyTransition(ctx context.Context, c *models.Complaint) {
	if c.Student != nil {
		switch c.Status {
		case models.StatusInProgress:
			s.notify(KindStatus, c.Student.Email, "Your Complaint is In Progress", "assigned", c)
		case models.StatusRejected:
			s.notify(KindStatus, c.Student.Email, "Your Complaint was Rejected", "rejected", c)
		case models.StatusResolved:
			s.notify(KindStatus, c.Student.Email, "Your Complaint has been Resolved", "resolved", c)
		}
	}

	if c.Status != models.StatusInProgress {
		return
	}
	staff, err := s.store.FindDepartmentUser(ctx, c.DepartmentName())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.WithError(err, "complaint_service").Warn("Failed to look up department user")
		}
		return
	}
	s.notify(KindTask, staff.Email, "New Task Assigned", "task", c)
}

func (s *ComplaintService) notify(kind, to, subject, tmpl string, c *models.Complaint) {
	if s.notifier == nil || to == "" {
		return
	}
	body, err := renderEmail(tmpl, c)
	if err != nil {
		logger.WithError(err, "complaint_service").Error("Failed to render email")
		return
	}
	s.notifier.Enqueue(Notification{
		Kind:    kind,
		Message: mail.Message{To: to, Subject: subject, HTML: body},
	})
}

// Delete removes a complaint and its upvotes. Admins may delete any
// complaint, students only their own.
func (s *ComplaintService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	complaint, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return fromStore(err, "complaint")
	}
	if !policy.CanDelete(actor, complaint) {
		return ErrForbidden
	}
	if err := s.store.DeleteComplaint(ctx, id); err != nil {
		return fromStore(err, "complaint")
	}
	s.stats.Invalidate(ctx)

	logger.WithComplaint(id, actor.ID).Info("Complaint deleted")
	return nil
}

// ToggleUpvote adds the actor's upvote, or removes it if present.
func (s *ComplaintService) ToggleUpvote(ctx context.Context, actor policy.Actor, complaintID uint) (*UpvoteResult, error) {
	if _, err := s.store.GetComplaint(ctx, complaintID); err != nil {
		return nil, fromStore(err, "complaint")
	}

	action := UpvoteAdded
	existing, err := s.store.FindUpvote(ctx, actor.ID, complaintID)
	switch {
	case err == nil:
		action = UpvoteRemoved
		if err := s.store.DeleteUpvote(ctx, existing.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	case errors.Is(err, store.ErrNotFound):
		// A concurrent toggle may have inserted the row first; either way it exists.
		err := s.store.CreateUpvote(ctx, &models.Upvote{UserID: actor.ID, ComplaintID: complaintID})
		if err != nil && !errors.Is(err, store.ErrDuplicate) {
			return nil, fromStore(err, "complaint")
		}
	default:
		return nil, err
	}

	summaries, err := s.store.UpvoteSummaries(ctx, []uint{complaintID}, actor.ID)
	if err != nil {
		return nil, err
	}
	return &UpvoteResult{
		Action:      action,
		UpvoteCount: summaries[complaintID].Count,
		HasUpvoted:  summaries[complaintID].HasUpvoted,
	}, nil
}

// Stats summarizes complaints by status and department for admins.
func (s *ComplaintService) Stats(ctx context.Context, actor policy.Actor) (*Stats, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	if cached, ok := s.stats.Get(ctx); ok {
		return cached, nil
	}

	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byDepartment, err := s.store.CountByDepartment(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		StatusCounts:     make(map[models.ComplaintStatus]int64, len(models.AllStatuses)),
		DepartmentCounts: byDepartment,
	}
	for _, st := range models.AllStatuses {
		stats.StatusCounts[st] = byStatus[st]
		stats.Total += byStatus[st]
	}
	if stats.DepartmentCounts == nil {
		stats.DepartmentCounts = []store.DepartmentCount{}
	}

	s.stats.Set(ctx, stats)
	return stats, nil
}
