package reporting

import (
	"context"
	"fmt"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

const (
	defaultRecent = 5
	maxRecent     = 50
)

type StaffStats struct {
	TotalComplaints      int `json:"totalComplaints"`
	PendingComplaints    int `json:"pendingComplaints"`
	AssignedComplaints   int `json:"assignedComplaints"`
	InProgressComplaints int `json:"inProgressComplaints"`
	ResolvedComplaints   int `json:"resolvedComplaints"`
	ClosedComplaints     int `json:"closedComplaints"`
	TotalOfficers        int `json:"totalOfficers"`
	ActiveOfficers       int `json:"activeOfficers"`
}

type CitizenStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

// StaffDashboard counts the complaints visible to an officer or admin by
// status, alongside the staff head count.
func (b *Builder) StaffDashboard(ctx context.Context, p lifecycle.Principal) (StaffStats, error) {
	if !p.Role.Staff() {
		return StaffStats{}, fmt.Errorf("role %q has no staff dashboard: %w", p.Role, lifecycle.ErrForbidden)
	}
	scope, err := lifecycle.Scope(p, models.ComplaintFilter{})
	if err != nil {
		return StaffStats{}, err
	}
	counts, err := b.source.ComplaintCounts(ctx, scope, Window{})
	if err != nil {
		return StaffStats{}, fmt.Errorf("complaint counts: %w", err)
	}
	total, active, err := b.source.StaffCounts(ctx)
	if err != nil {
		return StaffStats{}, fmt.Errorf("staff counts: %w", err)
	}

	stats := StaffStats{
		PendingComplaints:    counts.ByStatus[models.ComplaintStatusPending],
		AssignedComplaints:   counts.ByStatus[models.ComplaintStatusAssigned],
		InProgressComplaints: counts.ByStatus[models.ComplaintStatusInProgress],
		ResolvedComplaints:   counts.ByStatus[models.ComplaintStatusResolved],
		ClosedComplaints:     counts.ByStatus[models.ComplaintStatusClosed],
		TotalOfficers:        total,
		ActiveOfficers:       active,
	}
	for _, n := range counts.ByStatus {
		stats.TotalComplaints += n
	}
	return stats, nil
}

// CitizenDashboard summarises a citizen's own complaints.
func (b *Builder) CitizenDashboard(ctx context.Context, p lifecycle.Principal) (CitizenStats, error) {
	if p.Role != models.UserRoleCitizen {
		return CitizenStats{}, fmt.Errorf("role %q has no citizen dashboard: %w", p.Role, lifecycle.ErrForbidden)
	}
	scope, err := lifecycle.Scope(p, models.ComplaintFilter{})
	if err != nil {
		return CitizenStats{}, err
	}
	counts, err := b.source.ComplaintCounts(ctx, scope, Window{})
	if err != nil {
		return CitizenStats{}, fmt.Errorf("complaint counts: %w", err)
	}

	stats := CitizenStats{
		Pending:    counts.ByStatus[models.ComplaintStatusPending],
		InProgress: counts.ByStatus[models.ComplaintStatusInProgress],
		Resolved:   counts.ByStatus[models.ComplaintStatusResolved],
	}
	for _, n := range counts.ByStatus {
		stats.Total += n
	}
	return stats, nil
}

// RecentComplaints returns the newest complaints visible to p.
func (b *Builder) RecentComplaints(ctx context.Context, p lifecycle.Principal, limit int) ([]RecentComplaint, error) {
	if limit < 1 {
		limit = defaultRecent
	}
	if limit > maxRecent {
		limit = maxRecent
	}
	scope, err := lifecycle.Scope(p, models.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	recent, err := b.source.RecentComplaints(ctx, scope, Window{}, limit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []RecentComplaint{}
	}
	return recent, nil
}
