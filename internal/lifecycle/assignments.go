package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/Saman-dev12/civic/internal/models"
)

type NewAssignment struct {
	ComplaintID string
	OfficerID   string
	// Priority defaults to the complaint's priority when empty.
	Priority models.Priority
	DueDate  *time.Time
	Notes    string
}

// CreateAssignment binds an officer to a complaint on behalf of the admin
// p. A complaint holding an active assignment is never reassigned.
func (e *Engine) CreateAssignment(ctx context.Context, p Principal, input NewAssignment) (models.Assignment, error) {
	if !p.Can(CapCreateAssignment) {
		return models.Assignment{}, forbidden("role %q cannot assign complaints", p.Role)
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return models.Assignment{}, invalid("unknown priority %q", input.Priority)
	}

	var (
		created   models.Assignment
		citizenID string
	)
	err := e.store.WithinTx(ctx, func(q Queries) error {
		complaint, err := q.LockComplaint(ctx, input.ComplaintID)
		if err != nil {
			return err
		}

		officer, err := q.GetUser(ctx, input.OfficerID)
		if err != nil {
			return err
		}
		if officer.Role != models.UserRoleOfficer {
			return notFound("officer %s", input.OfficerID)
		}
		if !officer.IsActive {
			return invalid("officer %s is deactivated", input.OfficerID)
		}

		assigner, err := q.GetUser(ctx, p.ID)
		if err != nil {
			return err
		}
		if assigner.Role != models.UserRoleAdmin {
			return notFound("assigner %s", p.ID)
		}

		active, found, err := q.FindActiveAssignment(ctx, complaint.ID)
		if err != nil {
			return err
		}
		if found {
			return conflict("complaint %s is already assigned (assignment %s)", complaint.ID, active.ID)
		}

		now := e.now()
		priority := input.Priority
		if priority == "" {
			priority = complaint.Priority
		}
		created = models.Assignment{
			ID:          e.newID(),
			ComplaintID: complaint.ID,
			OfficerID:   officer.ID,
			AssignedBy:  assigner.ID,
			Priority:    priority,
			Status:      models.AssignmentStatusAssigned,
			Notes:       optional(strings.TrimSpace(input.Notes)),
			DueDate:     input.DueDate,
			AssignedAt:  now,
			UpdatedAt:   now,
		}
		if err := q.InsertAssignment(ctx, created); err != nil {
			return err
		}
		citizenID = complaint.CitizenID
		return q.SetComplaintStatus(ctx, complaint.ID, models.ComplaintStatusAssigned, now)
	})
	if err != nil {
		return models.Assignment{}, err
	}

	e.log.Info().
		Str("assignment_id", created.ID).
		Str("complaint_id", created.ComplaintID).
		Str("officer_id", created.OfficerID).
		Str("user_id", p.ID).
		Msg("complaint assigned")
	e.publish(ctx,
		Event{
			Type:         EventAssignmentCreated,
			ComplaintID:  created.ComplaintID,
			AssignmentID: created.ID,
			CitizenID:    citizenID,
			OfficerID:    created.OfficerID,
			ActorID:      p.ID,
			Status:       string(created.Status),
			At:           created.AssignedAt,
		},
		Event{
			Type:        EventComplaintStatusChange,
			ComplaintID: created.ComplaintID,
			CitizenID:   citizenID,
			ActorID:     p.ID,
			Status:      string(models.ComplaintStatusAssigned),
			At:          created.AssignedAt,
		},
	)
	return created, nil
}

// AssignmentUpdate carries the fields to change; nil fields stay as they are.
type AssignmentUpdate struct {
	Status   *models.AssignmentStatus
	Notes    *string
	Priority *models.Priority
	DueDate  *time.Time
}

// UpdateAssignment changes an assignment and, when the status changes,
// cascades the mapped status onto its complaint. Only the complaint's
// current assignment may change status. Officers may only touch the status
// and notes of their own assignments.
func (e *Engine) UpdateAssignment(ctx context.Context, p Principal, assignmentID string, update AssignmentUpdate) (models.Assignment, error) {
	if update.Status != nil && !update.Status.Valid() {
		return models.Assignment{}, invalid("unknown assignment status %q", *update.Status)
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return models.Assignment{}, invalid("unknown priority %q", *update.Priority)
	}

	var (
		updated   models.Assignment
		cascaded  models.ComplaintStatus
		citizenID string
	)
	err := e.store.WithinTx(ctx, func(q Queries) error {
		assignment, err := q.GetAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}

		switch {
		case p.Can(CapUpdateAnyAssignment):
		case p.Can(CapUpdateOwnAssignment) && assignment.OfficerID == p.ID:
			if update.Priority != nil || update.DueDate != nil {
				return forbidden("officers cannot change priority or due date of assignment %s", assignmentID)
			}
		default:
			return forbidden("assignment %s is not bound to %s", assignmentID, p.ID)
		}

		complaint, err := q.LockComplaint(ctx, assignment.ComplaintID)
		if err != nil {
			return err
		}

		if update.Status != nil {
			history, err := q.ListComplaintAssignments(ctx, assignment.ComplaintID)
			if err != nil {
				return err
			}
			if current, ok := CurrentAssignment(history); ok && current.ID != assignment.ID {
				return conflict("assignment %s was superseded by %s, its status no longer drives complaint %s",
					assignment.ID, current.ID, assignment.ComplaintID)
			}
		}

		if update.Status != nil && update.Status.Active() && !assignment.Status.Active() {
			active, found, err := q.FindActiveAssignment(ctx, assignment.ComplaintID)
			if err != nil {
				return err
			}
			if found && active.ID != assignment.ID {
				return conflict("complaint %s already has active assignment %s", assignment.ComplaintID, active.ID)
			}
		}

		now := e.now()
		if update.Status != nil {
			assignment.Status = *update.Status
		}
		if update.Notes != nil {
			assignment.Notes = optional(strings.TrimSpace(*update.Notes))
		}
		if update.Priority != nil {
			assignment.Priority = *update.Priority
		}
		if update.DueDate != nil {
			due := *update.DueDate
			assignment.DueDate = &due
		}
		assignment.UpdatedAt = now
		if err := q.UpdateAssignment(ctx, assignment); err != nil {
			return err
		}

		updated = assignment
		citizenID = complaint.CitizenID
		if update.Status == nil {
			return nil
		}
		status, _ := CascadeStatus(*update.Status)
		cascaded = status
		return q.SetComplaintStatus(ctx, assignment.ComplaintID, status, now)
	})
	if err != nil {
		return models.Assignment{}, err
	}

	e.log.Info().
		Str("assignment_id", updated.ID).
		Str("complaint_id", updated.ComplaintID).
		Str("status", string(updated.Status)).
		Str("user_id", p.ID).
		Msg("assignment updated")

	events := []Event{{
		Type:         EventAssignmentUpdated,
		ComplaintID:  updated.ComplaintID,
		AssignmentID: updated.ID,
		CitizenID:    citizenID,
		OfficerID:    updated.OfficerID,
		ActorID:      p.ID,
		Status:       string(updated.Status),
		At:           updated.UpdatedAt,
	}}
	if cascaded != "" {
		events = append(events, Event{
			Type:        EventComplaintStatusChange,
			ComplaintID: updated.ComplaintID,
			CitizenID:   citizenID,
			OfficerID:   updated.OfficerID,
			ActorID:     p.ID,
			Status:      string(cascaded),
			At:          updated.UpdatedAt,
		})
	}
	e.publish(ctx, events...)
	return updated, nil
}

// ListAssignments returns assignments newest first. Officers only ever see
// their own, whatever the filter says.
func (e *Engine) ListAssignments(ctx context.Context, p Principal, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown assignment status %q", filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, invalid("unknown priority %q", filter.Priority)
	}
	switch {
	case p.Can(CapUpdateAnyAssignment):
	case p.Can(CapUpdateOwnAssignment):
		filter.OfficerID = p.ID
	default:
		return nil, forbidden("role %q cannot list assignments", p.Role)
	}
	return e.store.ListAssignments(ctx, filter)
}

// ListComplaintAssignments returns the assignment history of a complaint
// visible to p, newest first.
func (e *Engine) ListComplaintAssignments(ctx context.Context, p Principal, complaintID string) ([]models.AssignmentDetail, error) {
	complaint, err := e.store.GetComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(ctx, e.store, p, complaint); err != nil {
		return nil, err
	}
	return e.store.ListComplaintAssignments(ctx, complaintID)
}

// CurrentAssignment picks the authoritative assignment: the most recent by
// AssignedAt.
func CurrentAssignment(history []models.AssignmentDetail) (models.AssignmentDetail, bool) {
	var (
		current models.AssignmentDetail
		found   bool
	)
	for _, a := range history {
		if !found || a.AssignedAt.After(current.AssignedAt) {
			current = a
			found = true
		}
	}
	return current, found
}
