package lifecycle

import "github.com/Saman-dev12/civic/internal/models"

// cascade maps an assignment status to the complaint status it forces.
var cascade = map[models.AssignmentStatus]models.ComplaintStatus{
	models.AssignmentStatusAssigned:   models.ComplaintStatusAssigned,
	models.AssignmentStatusInProgress: models.ComplaintStatusInProgress,
	models.AssignmentStatusCompleted:  models.ComplaintStatusResolved,
}

// CascadeStatus returns the complaint status forced by an assignment moving
// to s. ok is false for values outside the assignment status enum.
func CascadeStatus(s models.AssignmentStatus) (status models.ComplaintStatus, ok bool) {
	status, ok = cascade[s]
	return status, ok
}

// TransitionPolicy governs direct complaint status overrides.
type TransitionPolicy string

const (
	// PolicyPermissive accepts any status from any other status.
	PolicyPermissive TransitionPolicy = "permissive"
	// PolicyForwardOnly rejects moves back along the lifecycle order.
	PolicyForwardOnly TransitionPolicy = "forward_only"
)

func (p TransitionPolicy) Valid() bool {
	return p == PolicyPermissive || p == PolicyForwardOnly
}

// Check reports whether a complaint may move from one status to another
// under p. Re-setting the current status is always allowed.
func (p TransitionPolicy) Check(from, to models.ComplaintStatus) error {
	if !to.Valid() {
		return invalid("unknown complaint status %q", to)
	}
	if from == to || p != PolicyForwardOnly {
		return nil
	}
	if to.Rank() < from.Rank() {
		return conflict("complaint cannot move back from %s to %s", from, to)
	}
	return nil
}
