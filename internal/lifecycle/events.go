package lifecycle

import "time"

type EventType string

const (
	EventComplaintFiled        EventType = "complaint.filed"
	EventAssignmentCreated     EventType = "assignment.created"
	EventAssignmentUpdated     EventType = "assignment.updated"
	EventComplaintStatusChange EventType = "complaint.status_changed"
	EventCommentAdded          EventType = "comment.added"
)

// Event describes a committed lifecycle change. Fields that do not apply to
// a type are left empty.
type Event struct {
	Type         EventType `json:"type"`
	ComplaintID  string    `json:"complaintId"`
	AssignmentID string    `json:"assignmentId,omitempty"`
	CitizenID    string    `json:"citizenId,omitempty"`
	OfficerID    string    `json:"officerId,omitempty"`
	ActorID      string    `json:"actorId"`
	Status       string    `json:"status,omitempty"`
	At           time.Time `json:"at"`
}
