package repository

import (
	"context"
	"time"

	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/reporting"
)

var _ reporting.Source = (*ReportRepository)(nil)

// ReportRepository answers the aggregate queries behind reports and
// dashboards.
type ReportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

func addWindow(b *whereBuilder, column string, w reporting.Window) {
	if !w.Bounded() {
		return
	}
	b.add(column+" >= $%d", w.Start)
	b.add(column+" <= $%d", w.End)
}

func (r *ReportRepository) ComplaintCounts(ctx context.Context, scope models.ComplaintFilter, w reporting.Window) (reporting.ComplaintCounts, error) {
	where := complaintWhere(scope)
	addWindow(where, "c.created_at", w)
	query := `SELECT c.status, c.category, c.priority, COUNT(*) FROM complaints c` + where.sql() + `
		GROUP BY c.status, c.category, c.priority`

	counts := reporting.ComplaintCounts{
		ByStatus:   map[models.ComplaintStatus]int{},
		ByCategory: map[models.Category]int{},
		ByPriority: map[models.Priority]int{},
	}
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   models.ComplaintStatus
			category models.Category
			priority models.Priority
			n        int
		)
		if err := rows.Scan(&status, &category, &priority, &n); err != nil {
			return counts, err
		}
		counts.ByStatus[status] += n
		counts.ByCategory[category] += n
		counts.ByPriority[priority] += n
	}
	return counts, rows.Err()
}

func (r *ReportRepository) AssignmentCounts(ctx context.Context, scope reporting.AssignmentScope, w reporting.Window) (map[models.AssignmentStatus]int, error) {
	where := &whereBuilder{}
	if scope.OfficerID != "" {
		where.add("a.officer_id = $%d", scope.OfficerID)
	}
	if scope.Department != "" {
		where.add("o.department = $%d", scope.Department)
	}
	addWindow(where, "a.assigned_at", w)
	query := `SELECT a.status, COUNT(*) FROM assignments a JOIN users o ON o.id = a.officer_id` +
		where.sql() + ` GROUP BY a.status`

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.AssignmentStatus]int{}
	for rows.Next() {
		var (
			status models.AssignmentStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DepartmentTotals groups officers by department. Assignments only count
// when they fall inside the window.
func (r *ReportRepository) DepartmentTotals(ctx context.Context, w reporting.Window) ([]reporting.DepartmentTotals, error) {
	join := &whereBuilder{}
	join.raw("a.officer_id = o.id")
	addWindow(join, "a.assigned_at", w)

	query := `
		SELECT o.department,
		       COUNT(DISTINCT o.id),
		       COUNT(a.id),
		       COUNT(a.id) FILTER (WHERE a.status = 'completed')
		FROM users o
		LEFT JOIN assignments a ON ` + join.conditions() + `
		WHERE o.role = 'officer' AND o.department IS NOT NULL
		GROUP BY o.department
		ORDER BY o.department`

	rows, err := r.db.Query(ctx, query, join.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []reporting.DepartmentTotals
	for rows.Next() {
		var t reporting.DepartmentTotals
		if err := rows.Scan(&t.Department, &t.Officers, &t.TotalAssignments, &t.CompletedAssignments); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *ReportRepository) TopOfficers(ctx context.Context, w reporting.Window, limit int) ([]reporting.TopOfficer, error) {
	where := &whereBuilder{}
	where.raw("a.status = 'completed'")
	addWindow(where, "a.assigned_at", w)
	query := `
		SELECT o.id, o.name, COALESCE(o.department, ''), COUNT(*)
		FROM assignments a
		JOIN users o ON o.id = a.officer_id` + where.sql() + `
		GROUP BY o.id, o.name, o.department
		ORDER BY COUNT(*) DESC, o.name
		LIMIT ` + where.next(limit)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []reporting.TopOfficer
	for rows.Next() {
		var o reporting.TopOfficer
		if err := rows.Scan(&o.OfficerID, &o.Name, &o.Department, &o.CompletedAssignments); err != nil {
			return nil, err
		}
		top = append(top, o)
	}
	return top, rows.Err()
}

func (r *ReportRepository) RecentComplaints(ctx context.Context, scope models.ComplaintFilter, w reporting.Window, limit int) ([]reporting.RecentComplaint, error) {
	where := complaintWhere(scope)
	addWindow(where, "c.created_at", w)
	query := `
		SELECT c.id, c.title, c.category, c.priority, c.status, c.area, u.name, c.created_at
		FROM complaints c
		JOIN users u ON u.id = c.citizen_id` + where.sql() + `
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ` + where.next(limit)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []reporting.RecentComplaint
	for rows.Next() {
		var c reporting.RecentComplaint
		if err := rows.Scan(&c.ID, &c.Title, &c.Category, &c.Priority, &c.Status, &c.Area, &c.CitizenName, &c.CreatedAt); err != nil {
			return nil, err
		}
		recent = append(recent, c)
	}
	return recent, rows.Err()
}

func (r *ReportRepository) CreatedBetween(ctx context.Context, scope models.ComplaintFilter, from, to time.Time) (int, error) {
	where := complaintWhere(scope)
	where.add("c.created_at >= $%d", from)
	where.add("c.created_at < $%d", to)
	return r.count(ctx, `SELECT COUNT(*) FROM complaints c`+where.sql(), where.args...)
}

// ResolvedBetween counts resolved complaints last updated in the range.
func (r *ReportRepository) ResolvedBetween(ctx context.Context, scope models.ComplaintFilter, from, to time.Time) (int, error) {
	where := complaintWhere(scope)
	where.raw("c.status = 'resolved'")
	where.add("c.updated_at >= $%d", from)
	where.add("c.updated_at < $%d", to)
	return r.count(ctx, `SELECT COUNT(*) FROM complaints c`+where.sql(), where.args...)
}

func (r *ReportRepository) StaffCounts(ctx context.Context) (int, int, error) {
	const query = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active)
		FROM users WHERE role IN ('officer', 'admin')
	`
	var total, active int
	if err := r.db.QueryRow(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (r *ReportRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
