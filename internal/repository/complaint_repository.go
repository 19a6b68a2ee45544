package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Saman-dev12/civic/internal/models"
)

type ComplaintRepository struct {
	db DBTX
}

func NewComplaintRepository(db DBTX) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

const complaintColumns = `c.id, c.citizen_id, c.title, c.description, c.category, c.priority, c.status,
	c.location, c.area, c.landmark, c.images, c.created_at, c.updated_at`

func scanComplaint(row pgx.Row) (models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(
		&c.ID,
		&c.CitizenID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Priority,
		&c.Status,
		&c.Location,
		&c.Area,
		&c.Landmark,
		&c.Images,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *ComplaintRepository) Insert(ctx context.Context, c models.Complaint) error {
	const query = `
		INSERT INTO complaints (
			id, citizen_id, title, description, category, priority, status,
			location, area, landmark, images, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.CitizenID,
		c.Title,
		c.Description,
		c.Category,
		c.Priority,
		c.Status,
		c.Location,
		c.Area,
		c.Landmark,
		c.Images,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return mapWriteError(err)
}

func (r *ComplaintRepository) Get(ctx context.Context, id string) (models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints c WHERE c.id = $1`
	c, err := scanComplaint(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Complaint{}, mapNoRows(err, ErrComplaintNotFound)
	}
	return c, nil
}

// Lock reads a complaint with a row lock held until the transaction ends.
func (r *ComplaintRepository) Lock(ctx context.Context, id string) (models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints c WHERE c.id = $1 FOR UPDATE`
	c, err := scanComplaint(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Complaint{}, mapNoRows(err, ErrComplaintNotFound)
	}
	return c, nil
}

func (r *ComplaintRepository) SetStatus(ctx context.Context, id string, status models.ComplaintStatus, at time.Time) error {
	const query = `UPDATE complaints SET status = $2, updated_at = $3 WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, status, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrComplaintNotFound
	}
	return nil
}

// List returns one page of complaints matching f, newest first, and the
// total number of matches.
func (r *ComplaintRepository) List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, int, error) {
	where := complaintWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM complaints c`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints c` + where.sql() + ` ORDER BY c.created_at DESC, c.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + where.next(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + where.next(f.Offset)
	}

	complaints, err := r.collect(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

// ListStalePending returns complaints still pending since before cutoff,
// oldest first.
func (r *ComplaintRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints c
		WHERE c.status = 'pending' AND c.created_at < $1
		ORDER BY c.created_at
		LIMIT $2`
	return r.collect(ctx, query, cutoff, limit)
}

func (r *ComplaintRepository) collect(ctx context.Context, query string, args ...any) ([]models.Complaint, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := []models.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}
