// Package storetest provides an in-memory store.Store for tests. It keeps the
// same uniqueness and cascade rules as the database schema.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/store"
)

type Memory struct {
	mu         sync.Mutex
	users      map[uint]models.User
	complaints map[uint]models.Complaint
	upvotes    map[uint]models.Upvote
	nextID     uint
	clock      time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[uint]models.User),
		complaints: make(map[uint]models.Complaint),
		upvotes:    make(map[uint]models.Upvote),
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var _ store.Store = (*Memory)(nil)

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// UpvoteCount returns the number of upvote rows for the pair.
func (m *Memory) UpvoteCount(userID, complaintID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.upvotes {
		if u.UserID == userID && u.ComplaintID == complaintID {
			n++
		}
	}
	return n
}

// UpvotesFor returns the number of upvote rows referencing the complaint.
func (m *Memory) UpvotesFor(complaintID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.upvotes {
		if u.ComplaintID == complaintID {
			n++
		}
	}
	return n
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.ID = m.id()
	user.CreatedAt = m.tick()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (m *Memory) FindDepartmentUser(ctx context.Context, department string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.User
	for _, u := range m.users {
		if u.Role == models.RoleDepartment && u.DepartmentName() == department {
			if found == nil || u.ID < found.ID {
				u := u
				found = &u
			}
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (m *Memory) CountAdmins(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteUser(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	for cid, c := range m.complaints {
		if c.StudentID == id {
			m.deleteComplaintLocked(cid)
		}
	}
	for uid, u := range m.upvotes {
		if u.UserID == id {
			delete(m.upvotes, uid)
		}
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[complaint.StudentID]; !ok {
		return store.ErrNotFound
	}
	complaint.ID = m.id()
	complaint.CreatedAt = m.tick()
	complaint.UpdatedAt = complaint.CreatedAt
	stored := *complaint
	stored.Student = nil
	m.complaints[complaint.ID] = stored
	return nil
}

func (m *Memory) withStudent(c models.Complaint) models.Complaint {
	if u, ok := m.users[c.StudentID]; ok {
		c.Student = &u
	}
	return c
}

func (m *Memory) GetComplaint(ctx context.Context, id uint) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = m.withStudent(c)
	return &c, nil
}

func (m *Memory) ListComplaints(ctx context.Context, filter store.ComplaintFilter) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Complaint
	for _, c := range m.complaints {
		if filter.StudentID != nil && c.StudentID != *filter.StudentID {
			continue
		}
		if filter.Department != nil && c.DepartmentName() != *filter.Department {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, m.withStudent(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateComplaintStatus(ctx context.Context, id uint, from models.ComplaintStatus, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok || c.Status != from {
		return store.ErrStaleStatus
	}
	for k, v := range fields {
		switch k {
		case "status":
			c.Status = v.(models.ComplaintStatus)
		case "department":
			c.Department = v.(*string)
		case "assignment_notes":
			c.AssignmentNotes = v.(*string)
		case "resolution_notes":
			c.ResolutionNotes = v.(*string)
		case "rejection_reason":
			c.RejectionReason = v.(*string)
		default:
			panic("storetest: unsupported complaint column " + k)
		}
	}
	c.UpdatedAt = m.tick()
	m.complaints[id] = c
	return nil
}

func (m *Memory) DeleteComplaint(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.complaints[id]; !ok {
		return store.ErrNotFound
	}
	m.deleteComplaintLocked(id)
	return nil
}

func (m *Memory) deleteComplaintLocked(id uint) {
	for uid, u := range m.upvotes {
		if u.ComplaintID == id {
			delete(m.upvotes, uid)
		}
	}
	delete(m.complaints, id)
}

func (m *Memory) CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.ComplaintStatus]int64)
	for _, c := range m.complaints {
		counts[c.Status]++
	}
	return counts, nil
}

func (m *Memory) CountByDepartment(ctx context.Context) ([]store.DepartmentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, c := range m.complaints {
		if d := c.DepartmentName(); d != "" {
			counts[d]++
		}
	}
	out := make([]store.DepartmentCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, store.DepartmentCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) FindUpvote(ctx context.Context, userID, complaintID uint) (*models.Upvote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.upvotes {
		if u.UserID == userID && u.ComplaintID == complaintID {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) CreateUpvote(ctx context.Context, upvote *models.Upvote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.upvotes {
		if u.UserID == upvote.UserID && u.ComplaintID == upvote.ComplaintID {
			return store.ErrDuplicate
		}
	}
	if _, ok := m.complaints[upvote.ComplaintID]; !ok {
		return store.ErrNotFound
	}
	upvote.ID = m.id()
	upvote.CreatedAt = m.tick()
	m.upvotes[upvote.ID] = *upvote
	return nil
}

func (m *Memory) DeleteUpvote(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.upvotes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.upvotes, id)
	return nil
}

func (m *Memory) UpvoteSummaries(ctx context.Context, complaintIDs []uint, viewerID uint) (map[uint]store.UpvoteSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[uint]bool, len(complaintIDs))
	for _, id := range complaintIDs {
		wanted[id] = true
	}
	out := make(map[uint]store.UpvoteSummary)
	for _, u := range m.upvotes {
		if !wanted[u.ComplaintID] {
			continue
		}
		s := out[u.ComplaintID]
		s.Count++
		if u.UserID == viewerID {
			s.HasUpvoted = true
		}
		out[u.ComplaintID] = s
	}
	return out, nil
}
