package lifecycle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

func TestComplaintLifecycleEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkViews := func(t *testing.T, complaintID string) {
		t.Helper()
		_, err := f.engine.GetComplaint(ctx, f.citizen, complaintID)
		assert.NoError(t, err, "citizen must see own complaint")
		_, err = f.engine.GetComplaint(ctx, f.officer2, complaintID)
		assert.ErrorIs(t, err, lifecycle.ErrForbidden, "unassigned officer must not see complaint")
	}

	x := f.file(t)
	assert.Equal(t, models.ComplaintStatusPending, x.Status)
	checkViews(t, x.ID)

	a := f.assign(t, x.ID, f.officer)
	assert.Equal(t, models.AssignmentStatusAssigned, a.Status)
	assert.Equal(t, models.ComplaintStatusAssigned, f.status(t, x.ID))
	checkViews(t, x.ID)

	_, err := f.engine.CreateAssignment(ctx, f.admin, lifecycle.NewAssignment{ComplaintID: x.ID, OfficerID: f.officer2.ID})
	require.ErrorIs(t, err, lifecycle.ErrConflict)
	assert.Equal(t, models.ComplaintStatusAssigned, f.status(t, x.ID))
	checkViews(t, x.ID)

	_, err = f.engine.UpdateAssignment(ctx, f.officer, a.ID, lifecycle.AssignmentUpdate{
		Status: assignmentStatus(models.AssignmentStatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusInProgress, f.status(t, x.ID))
	checkViews(t, x.ID)

	_, err = f.engine.UpdateAssignment(ctx, f.officer, a.ID, lifecycle.AssignmentUpdate{
		Status: assignmentStatus(models.AssignmentStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusResolved, f.status(t, x.ID))
	checkViews(t, x.ID)
	assert.Zero(t, f.store.activeAssignments(x.ID))

	// A completed officer keeps read access after the complaint moves on.
	f.assign(t, x.ID, f.officer2)
	_, err = f.engine.GetComplaint(ctx, f.officer, x.ID)
	assert.NoError(t, err)

	history, err := f.engine.ListComplaintAssignments(ctx, f.citizen, x.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	current, ok := lifecycle.CurrentAssignment(history)
	require.True(t, ok)
	assert.Equal(t, f.officer2.ID, current.OfficerID)
}
