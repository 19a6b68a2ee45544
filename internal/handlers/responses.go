package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

type userResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	Department *string   `json:"department"`
	EmployeeID *string   `json:"employeeId"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUser(u models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       string(u.Role),
		Department: u.Department,
		EmployeeID: u.EmployeeID,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
	}
}

type officerResponse struct {
	userResponse
	Stats models.OfficerStats `json:"stats"`
}

type complaintResponse struct {
	ID          string    `json:"id"`
	CitizenID   string    `json:"citizenId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Area        *string   `json:"area"`
	Landmark    *string   `json:"landmark"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toComplaint(c models.Complaint) complaintResponse {
	images := c.Images
	if images == nil {
		images = []string{}
	}
	return complaintResponse{
		ID:          c.ID,
		CitizenID:   c.CitizenID,
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Priority:    string(c.Priority),
		Status:      string(c.Status),
		Location:    c.Location,
		Area:        c.Area,
		Landmark:    c.Landmark,
		Images:      images,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type assignmentResponse struct {
	ID                string     `json:"id"`
	ComplaintID       string     `json:"complaintId"`
	OfficerID         string     `json:"officerId"`
	AssignedBy        string     `json:"assignedBy"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	Notes             *string    `json:"notes"`
	DueDate           *time.Time `json:"dueDate"`
	AssignedAt        time.Time  `json:"assignedAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	OfficerName       string     `json:"officerName,omitempty"`
	OfficerDepartment string     `json:"officerDepartment,omitempty"`
	AssignerName      string     `json:"assignerName,omitempty"`
	ComplaintTitle    string     `json:"complaintTitle,omitempty"`
	ComplaintStatus   string     `json:"complaintStatus,omitempty"`
}

func toAssignment(a models.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:          a.ID,
		ComplaintID: a.ComplaintID,
		OfficerID:   a.OfficerID,
		AssignedBy:  a.AssignedBy,
		Priority:    string(a.Priority),
		Status:      string(a.Status),
		Notes:       a.Notes,
		DueDate:     a.DueDate,
		AssignedAt:  a.AssignedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toAssignmentDetail(d models.AssignmentDetail) assignmentResponse {
	resp := toAssignment(d.Assignment)
	resp.OfficerName = d.OfficerName
	resp.OfficerDepartment = d.OfficerDepartment
	resp.AssignerName = d.AssignerName
	resp.ComplaintTitle = d.ComplaintTitle
	resp.ComplaintStatus = string(d.ComplaintStatus)
	return resp
}

func toAssignmentDetails(in []models.AssignmentDetail) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(in))
	for _, d := range in {
		out = append(out, toAssignmentDetail(d))
	}
	return out
}

type commentResponse struct {
	ID          string    `json:"id"`
	ComplaintID string    `json:"complaintId"`
	UserID      string    `json:"userId"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"authorName"`
	AuthorRole  string    `json:"authorRole"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toComment(c models.CommentDetail) commentResponse {
	return commentResponse{
		ID:          c.ID,
		ComplaintID: c.ComplaintID,
		UserID:      c.UserID,
		Content:     c.Content,
		AuthorName:  c.AuthorName,
		AuthorRole:  string(c.AuthorRole),
		CreatedAt:   c.CreatedAt,
	}
}

func toComments(in []models.CommentDetail) []commentResponse {
	out := make([]commentResponse, 0, len(in))
	for _, c := range in {
		out = append(out, toComment(c))
	}
	return out
}

type complaintDetailResponse struct {
	complaintResponse
	Assignments       []assignmentResponse `json:"assignments"`
	Comments          []commentResponse    `json:"comments"`
	CurrentAssignment *assignmentResponse  `json:"currentAssignment"`
}

func toComplaintDetail(d lifecycle.ComplaintDetail) complaintDetailResponse {
	resp := complaintDetailResponse{
		complaintResponse: toComplaint(d.Complaint),
		Assignments:       toAssignmentDetails(d.Assignments),
		Comments:          toComments(d.Comments),
	}
	if d.Current != nil {
		current := toAssignmentDetail(*d.Current)
		resp.CurrentAssignment = &current
	}
	return resp
}

// date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type date struct {
	time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string")
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
