package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Saman-dev12/civic/internal/models"
)

type AssignmentRepository struct {
	db DBTX
}

func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `a.id, a.complaint_id, a.officer_id, a.assigned_by, a.priority, a.status,
	a.notes, a.due_date, a.assigned_at, a.updated_at`

const assignmentDetailQuery = `
	SELECT ` + assignmentColumns + `,
	       o.name, COALESCE(o.department, ''), ab.name, c.title, c.status
	FROM assignments a
	JOIN users o ON o.id = a.officer_id
	JOIN users ab ON ab.id = a.assigned_by
	JOIN complaints c ON c.id = a.complaint_id`

func scanAssignment(row pgx.Row) (models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(
		&a.ID,
		&a.ComplaintID,
		&a.OfficerID,
		&a.AssignedBy,
		&a.Priority,
		&a.Status,
		&a.Notes,
		&a.DueDate,
		&a.AssignedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func scanAssignmentDetail(row pgx.Row) (models.AssignmentDetail, error) {
	var d models.AssignmentDetail
	err := row.Scan(
		&d.ID,
		&d.ComplaintID,
		&d.OfficerID,
		&d.AssignedBy,
		&d.Priority,
		&d.Status,
		&d.Notes,
		&d.DueDate,
		&d.AssignedAt,
		&d.UpdatedAt,
		&d.OfficerName,
		&d.OfficerDepartment,
		&d.AssignerName,
		&d.ComplaintTitle,
		&d.ComplaintStatus,
	)
	return d, err
}

func (r *AssignmentRepository) Insert(ctx context.Context, a models.Assignment) error {
	const query = `
		INSERT INTO assignments (
			id, complaint_id, officer_id, assigned_by, priority, status, notes, due_date, assigned_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.ComplaintID,
		a.OfficerID,
		a.AssignedBy,
		a.Priority,
		a.Status,
		a.Notes,
		a.DueDate,
		a.AssignedAt,
		a.UpdatedAt,
	)
	return mapWriteError(err)
}

func (r *AssignmentRepository) Update(ctx context.Context, a models.Assignment) error {
	const query = `
		UPDATE assignments
		SET priority = $2,
		    status = $3,
		    notes = $4,
		    due_date = $5,
		    updated_at = $6
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, a.ID, a.Priority, a.Status, a.Notes, a.DueDate, a.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, id string) (models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a WHERE a.id = $1`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Assignment{}, mapNoRows(err, ErrAssignmentNotFound)
	}
	return a, nil
}

// FindActive returns the assignment still holding a complaint, if any.
func (r *AssignmentRepository) FindActive(ctx context.Context, complaintID string) (models.Assignment, bool, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a
		WHERE a.complaint_id = $1 AND a.status IN ('assigned', 'in_progress')
		LIMIT 1`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, complaintID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Assignment{}, false, nil
		}
		return models.Assignment{}, false, err
	}
	return a, true, nil
}

// IsOfficerBound reports whether any assignment, in any status, ever
// bound the officer to the complaint.
func (r *AssignmentRepository) IsOfficerBound(ctx context.Context, complaintID, officerID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM assignments WHERE complaint_id = $1 AND officer_id = $2)`
	var bound bool
	if err := r.db.QueryRow(ctx, query, complaintID, officerID).Scan(&bound); err != nil {
		return false, err
	}
	return bound, nil
}

func (r *AssignmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + ` WHERE a.complaint_id = $1 ORDER BY a.assigned_at DESC`
	return r.collectDetails(ctx, query, complaintID)
}

func (r *AssignmentRepository) List(ctx context.Context, f models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	where := &whereBuilder{}
	if f.OfficerID != "" {
		where.add("a.officer_id = $%d", f.OfficerID)
	}
	if f.Department != "" {
		where.add("o.department = $%d", f.Department)
	}
	if f.Status != "" {
		where.add("a.status = $%d", f.Status)
	}
	if f.Priority != "" {
		where.add("a.priority = $%d", f.Priority)
	}
	query := assignmentDetailQuery + where.sql() + ` ORDER BY a.assigned_at DESC`
	return r.collectDetails(ctx, query, where.args...)
}

// ListOverdue returns active assignments whose due date passed before now.
func (r *AssignmentRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + `
		WHERE a.status IN ('assigned', 'in_progress') AND a.due_date IS NOT NULL AND a.due_date < $1
		ORDER BY a.due_date`
	return r.collectDetails(ctx, query, now)
}

func (r *AssignmentRepository) collectDetails(ctx context.Context, query string, args ...any) ([]models.AssignmentDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []models.AssignmentDetail{}
	for rows.Next() {
		d, err := scanAssignmentDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
