package lifecycle_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

// memStore is an in-memory lifecycle.Store. WithinTx runs one transaction
// at a time, snapshots every table and restores it when fn fails.
type memStore struct {
	tx          sync.Mutex
	mu          sync.Mutex
	users       map[string]models.User
	complaints  map[string]models.Complaint
	assignments map[string]models.Assignment
	comments    []models.Comment
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]models.User{},
		complaints:  map[string]models.Complaint{},
		assignments: map[string]models.Assignment{},
	}
}

func (s *memStore) WithinTx(_ context.Context, fn func(q lifecycle.Queries) error) error {
	s.tx.Lock()
	defer s.tx.Unlock()

	s.mu.Lock()
	users := cloneMap(s.users)
	complaints := cloneMap(s.complaints)
	assignments := cloneMap(s.assignments)
	comments := append([]models.Comment(nil), s.comments...)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.complaints, s.assignments, s.comments = users, complaints, assignments, comments
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, lifecycle.ErrNotFound)
	}
	return u, nil
}

func (s *memStore) GetComplaint(_ context.Context, id string) (models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return models.Complaint{}, fmt.Errorf("complaint %s: %w", id, lifecycle.ErrNotFound)
	}
	return c, nil
}

func (s *memStore) LockComplaint(ctx context.Context, id string) (models.Complaint, error) {
	return s.GetComplaint(ctx, id)
}

func (s *memStore) InsertComplaint(_ context.Context, c models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints[c.ID] = c
	return nil
}

func (s *memStore) SetComplaintStatus(_ context.Context, id string, status models.ComplaintStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return fmt.Errorf("complaint %s: %w", id, lifecycle.ErrNotFound)
	}
	c.Status = status
	c.UpdatedAt = at
	s.complaints[id] = c
	return nil
}

func (s *memStore) ListComplaints(_ context.Context, f models.ComplaintFilter) ([]models.Complaint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Complaint
	for _, c := range s.complaints {
		if f.CitizenID != "" && c.CitizenID != f.CitizenID {
			continue
		}
		if f.OfficerID != "" && !s.boundLocked(c.ID, f.OfficerID) {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.Priority != "" && c.Priority != f.Priority {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title+" "+c.Description), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if f.Offset >= total {
		return []models.Complaint{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (s *memStore) GetAssignment(_ context.Context, id string) (models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return models.Assignment{}, fmt.Errorf("assignment %s: %w", id, lifecycle.ErrNotFound)
	}
	return a, nil
}

func (s *memStore) FindActiveAssignment(_ context.Context, complaintID string) (models.Assignment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.ComplaintID == complaintID && a.Status.Active() {
			return a, true, nil
		}
	}
	return models.Assignment{}, false, nil
}

func (s *memStore) IsOfficerBound(_ context.Context, complaintID, officerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundLocked(complaintID, officerID), nil
}

func (s *memStore) boundLocked(complaintID, officerID string) bool {
	for _, a := range s.assignments {
		if a.ComplaintID == complaintID && a.OfficerID == officerID {
			return true
		}
	}
	return false
}

// activeCountLocked mirrors the partial unique index on assignments.
func (s *memStore) activeCountLocked(complaintID, except string) int {
	n := 0
	for _, a := range s.assignments {
		if a.ComplaintID == complaintID && a.ID != except && a.Status.Active() {
			n++
		}
	}
	return n
}

func (s *memStore) InsertAssignment(_ context.Context, a models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Status.Active() && s.activeCountLocked(a.ComplaintID, a.ID) > 0 {
		return fmt.Errorf("duplicate active assignment: %w", lifecycle.ErrConflict)
	}
	s.assignments[a.ID] = a
	return nil
}

func (s *memStore) UpdateAssignment(_ context.Context, a models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; !ok {
		return fmt.Errorf("assignment %s: %w", a.ID, lifecycle.ErrNotFound)
	}
	if a.Status.Active() && s.activeCountLocked(a.ComplaintID, a.ID) > 0 {
		return fmt.Errorf("duplicate active assignment: %w", lifecycle.ErrConflict)
	}
	s.assignments[a.ID] = a
	return nil
}

func (s *memStore) detailLocked(a models.Assignment) models.AssignmentDetail {
	officer := s.users[a.OfficerID]
	return models.AssignmentDetail{
		Assignment:        a,
		OfficerName:       officer.Name,
		OfficerDepartment: officer.DepartmentName(),
		AssignerName:      s.users[a.AssignedBy].Name,
		ComplaintTitle:    s.complaints[a.ComplaintID].Title,
		ComplaintStatus:   s.complaints[a.ComplaintID].Status,
	}
}

func (s *memStore) ListComplaintAssignments(_ context.Context, complaintID string) ([]models.AssignmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssignmentDetail
	for _, a := range s.assignments {
		if a.ComplaintID == complaintID {
			out = append(out, s.detailLocked(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (s *memStore) ListAssignments(_ context.Context, f models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssignmentDetail
	for _, a := range s.assignments {
		d := s.detailLocked(a)
		if f.OfficerID != "" && a.OfficerID != f.OfficerID {
			continue
		}
		if f.Department != "" && d.OfficerDepartment != f.Department {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Priority != "" && a.Priority != f.Priority {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (s *memStore) InsertComment(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, c)
	return nil
}

func (s *memStore) ListComments(_ context.Context, complaintID string) ([]models.CommentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CommentDetail
	for _, c := range s.comments {
		if c.ComplaintID == complaintID {
			author := s.users[c.UserID]
			out = append(out, models.CommentDetail{Comment: c, AuthorName: author.Name, AuthorRole: author.Role})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) activeAssignments(complaintID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked(complaintID, "")
}

type staticSettings struct {
	priority models.Priority
	category models.Category
	policy   lifecycle.TransitionPolicy
}

func (s staticSettings) DefaultPriority() models.Priority            { return s.priority }
func (s staticSettings) DefaultCategory() models.Category            { return s.category }
func (s staticSettings) TransitionPolicy() lifecycle.TransitionPolicy { return s.policy }

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e lifecycle.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []lifecycle.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]lifecycle.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
