package models

import "time"

type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusAssigned   ComplaintStatus = "assigned"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

// ComplaintStatuses lists every complaint status in lifecycle order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusAssigned,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
	ComplaintStatusClosed,
}

func (s ComplaintStatus) Valid() bool {
	return s.Rank() >= 0
}

// Rank is the position of s in lifecycle order, or -1 for unknown values.
func (s ComplaintStatus) Rank() int {
	for i, v := range ComplaintStatuses {
		if v == s {
			return i
		}
	}
	return -1
}

type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusAssigned, AssignmentStatusInProgress, AssignmentStatusCompleted:
		return true
	}
	return false
}

var AssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusInProgress,
	AssignmentStatusCompleted,
}

// Active reports whether the assignment still holds the complaint.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentStatusAssigned || s == AssignmentStatusInProgress
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Category string

const (
	CategoryRoads       Category = "roads"
	CategoryStreetlight Category = "streetlight"
	CategorySanitation  Category = "sanitation"
	CategoryWater       Category = "water"
	CategoryTree        Category = "tree"
	CategoryElectricity Category = "electricity"
	CategoryDrainage    Category = "drainage"
	CategoryOthers      Category = "others"
)

var Categories = []Category{
	CategoryRoads, CategoryStreetlight, CategorySanitation, CategoryWater,
	CategoryTree, CategoryElectricity, CategoryDrainage, CategoryOthers,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryRoads, CategoryStreetlight, CategorySanitation, CategoryWater,
		CategoryTree, CategoryElectricity, CategoryDrainage, CategoryOthers:
		return true
	}
	return false
}

type Complaint struct {
	ID          string
	CitizenID   string
	Title       string
	Description string
	Category    Category
	Priority    Priority
	Status      ComplaintStatus
	Location    string
	Area        *string
	Landmark    *string
	Images      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Assignment struct {
	ID          string
	ComplaintID string
	OfficerID   string
	AssignedBy  string
	Priority    Priority
	Status      AssignmentStatus
	Notes       *string
	DueDate     *time.Time
	AssignedAt  time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID          string
	ComplaintID string
	UserID      string
	Content     string
	CreatedAt   time.Time
}

// ComplaintFilter narrows complaint listings. CitizenID and OfficerID are
// visibility scopes and are set by the lifecycle engine, never by callers.
type ComplaintFilter struct {
	CitizenID string
	OfficerID string
	Status    ComplaintStatus
	Category  Category
	Priority  Priority
	Search    string
	Limit     int
	Offset    int
}

type AssignmentFilter struct {
	OfficerID  string
	Department string
	Status     AssignmentStatus
	Priority   Priority
}

// AssignmentDetail is an assignment joined with the names the dashboards show.
type AssignmentDetail struct {
	Assignment
	OfficerName       string
	OfficerDepartment string
	AssignerName      string
	ComplaintTitle    string
	ComplaintStatus   ComplaintStatus
}

type CommentDetail struct {
	Comment
	AuthorName string
	AuthorRole UserRole
}
