package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

var _ lifecycle.Store = (*Store)(nil)

// Store is the Postgres implementation of the lifecycle engine's store.
// Outside WithinTx every query runs on the pool.
type Store struct {
	pool *pgxpool.Pool
	queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, queries: newQueries(pool)}
}

// WithinTx runs fn in one read-committed transaction, committed when fn
// returns nil and rolled back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(q lifecycle.Queries) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(newQueries(tx))
	})
}

type queries struct {
	users       *UserRepository
	complaints  *ComplaintRepository
	assignments *AssignmentRepository
	comments    *CommentRepository
}

func newQueries(db DBTX) queries {
	return queries{
		users:       NewUserRepository(db),
		complaints:  NewComplaintRepository(db),
		assignments: NewAssignmentRepository(db),
		comments:    NewCommentRepository(db),
	}
}

func (q queries) GetUser(ctx context.Context, id string) (models.User, error) {
	return q.users.GetByID(ctx, id)
}

func (q queries) GetComplaint(ctx context.Context, id string) (models.Complaint, error) {
	return q.complaints.Get(ctx, id)
}

func (q queries) LockComplaint(ctx context.Context, id string) (models.Complaint, error) {
	return q.complaints.Lock(ctx, id)
}

func (q queries) InsertComplaint(ctx context.Context, c models.Complaint) error {
	return q.complaints.Insert(ctx, c)
}

func (q queries) SetComplaintStatus(ctx context.Context, id string, status models.ComplaintStatus, at time.Time) error {
	return q.complaints.SetStatus(ctx, id, status, at)
}

func (q queries) ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, int, error) {
	return q.complaints.List(ctx, f)
}

func (q queries) GetAssignment(ctx context.Context, id string) (models.Assignment, error) {
	return q.assignments.Get(ctx, id)
}

func (q queries) FindActiveAssignment(ctx context.Context, complaintID string) (models.Assignment, bool, error) {
	return q.assignments.FindActive(ctx, complaintID)
}

func (q queries) IsOfficerBound(ctx context.Context, complaintID, officerID string) (bool, error) {
	return q.assignments.IsOfficerBound(ctx, complaintID, officerID)
}

func (q queries) InsertAssignment(ctx context.Context, a models.Assignment) error {
	return q.assignments.Insert(ctx, a)
}

func (q queries) UpdateAssignment(ctx context.Context, a models.Assignment) error {
	return q.assignments.Update(ctx, a)
}

func (q queries) ListComplaintAssignments(ctx context.Context, complaintID string) ([]models.AssignmentDetail, error) {
	return q.assignments.ListByComplaint(ctx, complaintID)
}

func (q queries) ListAssignments(ctx context.Context, f models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	return q.assignments.List(ctx, f)
}

func (q queries) InsertComment(ctx context.Context, c models.Comment) error {
	return q.comments.Insert(ctx, c)
}

func (q queries) ListComments(ctx context.Context, complaintID string) ([]models.CommentDetail, error) {
	return q.comments.ListByComplaint(ctx, complaintID)
}
