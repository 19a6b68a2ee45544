package lifecycle

import (
	"context"
	"time"

	"github.com/Saman-dev12/civic/internal/models"
)

// Queries is the storage surface the engine needs. Lookups of a missing row
// return an error wrapping ErrNotFound. InsertAssignment and
// UpdateAssignment return an error wrapping ErrConflict when the write
// would leave a complaint with two active assignments.
type Queries interface {
	GetUser(ctx context.Context, id string) (models.User, error)

	GetComplaint(ctx context.Context, id string) (models.Complaint, error)
	// LockComplaint reads the complaint and holds its row until the
	// surrounding transaction ends.
	LockComplaint(ctx context.Context, id string) (models.Complaint, error)
	InsertComplaint(ctx context.Context, complaint models.Complaint) error
	SetComplaintStatus(ctx context.Context, id string, status models.ComplaintStatus, at time.Time) error
	ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, int, error)

	GetAssignment(ctx context.Context, id string) (models.Assignment, error)
	FindActiveAssignment(ctx context.Context, complaintID string) (models.Assignment, bool, error)
	IsOfficerBound(ctx context.Context, complaintID, officerID string) (bool, error)
	InsertAssignment(ctx context.Context, assignment models.Assignment) error
	UpdateAssignment(ctx context.Context, assignment models.Assignment) error
	ListComplaintAssignments(ctx context.Context, complaintID string) ([]models.AssignmentDetail, error)
	ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)

	InsertComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, complaintID string) ([]models.CommentDetail, error)
}

// Store runs Queries directly or inside one all-or-nothing transaction.
type Store interface {
	Queries
	WithinTx(ctx context.Context, fn func(q Queries) error) error
}

// Settings supplies the runtime-tunable parts of the lifecycle.
type Settings interface {
	DefaultPriority() models.Priority
	DefaultCategory() models.Category
	TransitionPolicy() TransitionPolicy
}

// Publisher receives lifecycle events after their transaction commits.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
