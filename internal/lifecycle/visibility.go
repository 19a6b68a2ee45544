package lifecycle

import (
	"context"

	"github.com/Saman-dev12/civic/internal/models"
)

// CanView is the single read/write gate on a complaint. Admins see every
// complaint, officers any complaint they were ever assigned (completed and
// superseded assignments included), citizens only their own.
func CanView(p Principal, complaint models.Complaint, assignments []models.Assignment) bool {
	switch {
	case p.Can(CapViewAllComplaints):
		return true
	case p.Role == models.UserRoleOfficer:
		for _, a := range assignments {
			if a.ComplaintID == complaint.ID && a.OfficerID == p.ID {
				return true
			}
		}
		return false
	case p.Role == models.UserRoleCitizen:
		return p.ID != "" && complaint.CitizenID == p.ID
	}
	return false
}

// Scope narrows a complaint filter to what p may see. The caller's own
// scope fields are always overwritten.
func Scope(p Principal, filter models.ComplaintFilter) (models.ComplaintFilter, error) {
	filter.CitizenID = ""
	filter.OfficerID = ""
	switch {
	case p.Can(CapViewAllComplaints):
	case p.Role == models.UserRoleOfficer:
		filter.OfficerID = p.ID
	case p.Role == models.UserRoleCitizen:
		filter.CitizenID = p.ID
	default:
		return filter, forbidden("role %q cannot list complaints", p.Role)
	}
	return filter, nil
}

// authorizeView is CanView evaluated against the store, without loading the
// whole assignment history.
func authorizeView(ctx context.Context, q Queries, p Principal, complaint models.Complaint) error {
	switch {
	case p.Can(CapViewAllComplaints):
		return nil
	case p.Role == models.UserRoleOfficer:
		bound, err := q.IsOfficerBound(ctx, complaint.ID, p.ID)
		if err != nil {
			return err
		}
		if bound {
			return nil
		}
	case p.Role == models.UserRoleCitizen:
		if p.ID != "" && complaint.CitizenID == p.ID {
			return nil
		}
	}
	return forbidden("complaint %s is not visible to %s", complaint.ID, p.ID)
}
