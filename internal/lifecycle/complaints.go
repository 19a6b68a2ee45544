package lifecycle

import (
	"context"
	"math"
	"strings"

	"github.com/Saman-dev12/civic/internal/models"
)

type NewComplaint struct {
	Title       string          `json:"title" validate:"required,min=5,max=100"`
	Description string          `json:"description" validate:"required,min=10,max=1000"`
	Category    models.Category `json:"category" validate:"required,oneof=roads streetlight sanitation water tree electricity drainage others"`
	Priority    models.Priority `json:"priority" validate:"required,oneof=low medium high critical"`
	Location    string          `json:"location" validate:"required,max=255"`
	Area        string          `json:"area" validate:"max=120"`
	Landmark    string          `json:"landmark" validate:"max=120"`
	Images      []string        `json:"images" validate:"max=5,dive,required,uri"`
}

// FileComplaint records a new complaint for a citizen. Missing priority and
// category fall back to the configured defaults.
func (e *Engine) FileComplaint(ctx context.Context, p Principal, input NewComplaint) (models.Complaint, error) {
	if !p.Can(CapFileComplaint) {
		return models.Complaint{}, forbidden("role %q cannot file complaints", p.Role)
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	input.Area = strings.TrimSpace(input.Area)
	input.Landmark = strings.TrimSpace(input.Landmark)
	if input.Priority == "" && e.settings != nil {
		input.Priority = e.settings.DefaultPriority()
	}
	if input.Category == "" && e.settings != nil {
		input.Category = e.settings.DefaultCategory()
	}
	if err := validateStruct(input); err != nil {
		return models.Complaint{}, err
	}

	now := e.now()
	complaint := models.Complaint{
		ID:          e.newID(),
		CitizenID:   p.ID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      models.ComplaintStatusPending,
		Location:    input.Location,
		Area:        optional(input.Area),
		Landmark:    optional(input.Landmark),
		Images:      input.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if complaint.Images == nil {
		complaint.Images = []string{}
	}

	if err := e.store.InsertComplaint(ctx, complaint); err != nil {
		return models.Complaint{}, err
	}

	e.log.Info().
		Str("complaint_id", complaint.ID).
		Str("user_id", p.ID).
		Str("category", string(complaint.Category)).
		Msg("complaint filed")
	e.publish(ctx, Event{
		Type:        EventComplaintFiled,
		ComplaintID: complaint.ID,
		CitizenID:   complaint.CitizenID,
		ActorID:     p.ID,
		Status:      string(complaint.Status),
		At:          now,
	})
	return complaint, nil
}

type ComplaintDetail struct {
	Complaint   models.Complaint
	Assignments []models.AssignmentDetail
	Comments    []models.CommentDetail
	// Current is the most recent assignment, nil before the first one.
	Current *models.AssignmentDetail
}

func (e *Engine) GetComplaint(ctx context.Context, p Principal, id string) (ComplaintDetail, error) {
	complaint, err := e.store.GetComplaint(ctx, id)
	if err != nil {
		return ComplaintDetail{}, err
	}
	if err := authorizeView(ctx, e.store, p, complaint); err != nil {
		return ComplaintDetail{}, err
	}

	assignments, err := e.store.ListComplaintAssignments(ctx, id)
	if err != nil {
		return ComplaintDetail{}, err
	}
	comments, err := e.store.ListComments(ctx, id)
	if err != nil {
		return ComplaintDetail{}, err
	}

	detail := ComplaintDetail{
		Complaint:   complaint,
		Assignments: assignments,
		Comments:    comments,
	}
	if current, ok := CurrentAssignment(assignments); ok {
		detail.Current = &current
	}
	return detail, nil
}

type ListQuery struct {
	Status   models.ComplaintStatus
	Category models.Category
	Priority models.Priority
	Search   string
	Page     int
	Limit    int
}

type ComplaintPage struct {
	Complaints []models.Complaint
	Page       int
	Limit      int
	Total      int
	Pages      int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100

	// maxPage keeps (page-1)*limit inside int.
	maxPage = math.MaxInt / maxPageSize
)

// ListComplaints returns one page of the complaints visible to p.
func (e *Engine) ListComplaints(ctx context.Context, p Principal, query ListQuery) (ComplaintPage, error) {
	if query.Status != "" && !query.Status.Valid() {
		return ComplaintPage{}, invalid("unknown complaint status %q", query.Status)
	}
	if query.Category != "" && !query.Category.Valid() {
		return ComplaintPage{}, invalid("unknown category %q", query.Category)
	}
	if query.Priority != "" && !query.Priority.Valid() {
		return ComplaintPage{}, invalid("unknown priority %q", query.Priority)
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = defaultPageSize
	}
	if query.Limit > maxPageSize {
		query.Limit = maxPageSize
	}
	if query.Page > maxPage {
		query.Page = maxPage
	}

	filter, err := Scope(p, models.ComplaintFilter{
		Status:   query.Status,
		Category: query.Category,
		Priority: query.Priority,
		Search:   strings.TrimSpace(query.Search),
		Limit:    query.Limit,
		Offset:   (query.Page - 1) * query.Limit,
	})
	if err != nil {
		return ComplaintPage{}, err
	}

	complaints, total, err := e.store.ListComplaints(ctx, filter)
	if err != nil {
		return ComplaintPage{}, err
	}
	return ComplaintPage{
		Complaints: complaints,
		Page:       query.Page,
		Limit:      query.Limit,
		Total:      total,
		Pages:      (total + query.Limit - 1) / query.Limit,
	}, nil
}

// UpdateComplaintStatus sets a complaint's status directly. No assignment
// record is created or changed.
func (e *Engine) UpdateComplaintStatus(ctx context.Context, p Principal, complaintID string, status models.ComplaintStatus) (models.Complaint, error) {
	if !status.Valid() {
		return models.Complaint{}, invalid("unknown complaint status %q", status)
	}
	if !p.Can(CapOverrideAnyComplaintStatus) && !p.Can(CapOverrideBoundComplaintStatus) {
		return models.Complaint{}, forbidden("role %q cannot change complaint status", p.Role)
	}

	var (
		updated models.Complaint
		from    models.ComplaintStatus
	)
	err := e.store.WithinTx(ctx, func(q Queries) error {
		complaint, err := q.LockComplaint(ctx, complaintID)
		if err != nil {
			return err
		}
		if !p.Can(CapOverrideAnyComplaintStatus) {
			bound, err := q.IsOfficerBound(ctx, complaintID, p.ID)
			if err != nil {
				return err
			}
			if !bound {
				return forbidden("complaint %s is not assigned to %s", complaintID, p.ID)
			}
		}
		if err := e.policy().Check(complaint.Status, status); err != nil {
			return err
		}

		now := e.now()
		if err := q.SetComplaintStatus(ctx, complaintID, status, now); err != nil {
			return err
		}
		from = complaint.Status
		complaint.Status = status
		complaint.UpdatedAt = now
		updated = complaint
		return nil
	})
	if err != nil {
		return models.Complaint{}, err
	}

	e.log.Info().
		Str("complaint_id", complaintID).
		Str("user_id", p.ID).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("complaint status overridden")
	e.publish(ctx, Event{
		Type:        EventComplaintStatusChange,
		ComplaintID: complaintID,
		CitizenID:   updated.CitizenID,
		ActorID:     p.ID,
		Status:      string(status),
		At:          updated.UpdatedAt,
	})
	return updated, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
