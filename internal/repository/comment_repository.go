package repository

import (
	"context"

	"github.com/Saman-dev12/civic/internal/models"
)

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Insert(ctx context.Context, c models.Comment) error {
	const query = `
		INSERT INTO comments (id, complaint_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, c.ID, c.ComplaintID, c.UserID, c.Content, c.CreatedAt)
	return mapWriteError(err)
}

// ListByComplaint returns a complaint's comments oldest first with their
// authors.
func (r *CommentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.CommentDetail, error) {
	const query = `
		SELECT cm.id, cm.complaint_id, cm.user_id, cm.content, cm.created_at, u.name, u.role
		FROM comments cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.complaint_id = $1
		ORDER BY cm.created_at, cm.id
	`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.CommentDetail{}
	for rows.Next() {
		var c models.CommentDetail
		if err := rows.Scan(
			&c.ID,
			&c.ComplaintID,
			&c.UserID,
			&c.Content,
			&c.CreatedAt,
			&c.AuthorName,
			&c.AuthorRole,
		); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
