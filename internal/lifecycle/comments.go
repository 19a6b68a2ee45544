package lifecycle

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Saman-dev12/civic/internal/models"
)

const maxCommentLength = 1000

func (e *Engine) AddComment(ctx context.Context, p Principal, complaintID, content string) (models.CommentDetail, error) {
	if !p.Can(CapComment) {
		return models.CommentDetail{}, forbidden("role %q cannot comment", p.Role)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.CommentDetail{}, invalid("comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return models.CommentDetail{}, invalid("comment must be at most %d characters", maxCommentLength)
	}

	complaint, err := e.store.GetComplaint(ctx, complaintID)
	if err != nil {
		return models.CommentDetail{}, err
	}
	if err := authorizeView(ctx, e.store, p, complaint); err != nil {
		return models.CommentDetail{}, err
	}

	comment := models.Comment{
		ID:          e.newID(),
		ComplaintID: complaintID,
		UserID:      p.ID,
		Content:     content,
		CreatedAt:   e.now(),
	}
	if err := e.store.InsertComment(ctx, comment); err != nil {
		return models.CommentDetail{}, err
	}

	e.publish(ctx, Event{
		Type:        EventCommentAdded,
		ComplaintID: complaintID,
		CitizenID:   complaint.CitizenID,
		ActorID:     p.ID,
		At:          comment.CreatedAt,
	})
	return models.CommentDetail{Comment: comment, AuthorRole: p.Role}, nil
}

// ListComments returns a complaint's comments oldest first.
func (e *Engine) ListComments(ctx context.Context, p Principal, complaintID string) ([]models.CommentDetail, error) {
	complaint, err := e.store.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(ctx, e.store, p, complaint); err != nil {
		return nil, err
	}
	return e.store.ListComments(ctx, complaintID)
}
