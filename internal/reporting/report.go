package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

const (
	trendDays      = 7
	topOfficers    = 5
	recentInReport = 10
)

// Window bounds a report. The zero value means no bound; Start and End are
// both inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Bounded() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

// Query selects a report. The window only applies when both bounds are set.
type Query struct {
	Start      *time.Time
	End        *time.Time
	Department string
}

func (q Query) window() (Window, error) {
	if q.Start == nil || q.End == nil {
		return Window{}, nil
	}
	if q.End.Before(*q.Start) {
		return Window{}, fmt.Errorf("report window ends before it starts: %w", lifecycle.ErrInvalid)
	}
	return Window{Start: *q.Start, End: *q.End}, nil
}

type ComplaintCounts struct {
	ByStatus   map[models.ComplaintStatus]int
	ByCategory map[models.Category]int
	ByPriority map[models.Priority]int
}

// AssignmentScope narrows assignment counts to one officer or department.
type AssignmentScope struct {
	OfficerID  string
	Department string
}

type DepartmentTotals struct {
	Department           string
	Officers             int
	TotalAssignments     int
	CompletedAssignments int
}

type TopOfficer struct {
	OfficerID            string `json:"officerId"`
	Name                 string `json:"name"`
	Department           string `json:"department"`
	CompletedAssignments int    `json:"completedAssignments"`
}

type RecentComplaint struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Category    models.Category        `json:"category"`
	Priority    models.Priority        `json:"priority"`
	Status      models.ComplaintStatus `json:"status"`
	Area        *string                `json:"area,omitempty"`
	CitizenName string                 `json:"citizenName"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Source is the read side the reports are projected from. Every complaint
// query honours the visibility scope fields of models.ComplaintFilter.
type Source interface {
	ComplaintCounts(ctx context.Context, scope models.ComplaintFilter, w Window) (ComplaintCounts, error)
	AssignmentCounts(ctx context.Context, scope AssignmentScope, w Window) (map[models.AssignmentStatus]int, error)
	DepartmentTotals(ctx context.Context, w Window) ([]DepartmentTotals, error)
	TopOfficers(ctx context.Context, w Window, limit int) ([]TopOfficer, error)
	RecentComplaints(ctx context.Context, scope models.ComplaintFilter, w Window, limit int) ([]RecentComplaint, error)
	// CreatedBetween and ResolvedBetween count over the half-open range [from, to).
	CreatedBetween(ctx context.Context, scope models.ComplaintFilter, from, to time.Time) (int, error)
	ResolvedBetween(ctx context.Context, scope models.ComplaintFilter, from, to time.Time) (int, error)
	StaffCounts(ctx context.Context) (total, active int, err error)
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

type PriorityCount struct {
	Priority models.Priority `json:"priority"`
	Count    int             `json:"count"`
}

type Summary struct {
	TotalComplaints        int             `json:"totalComplaints"`
	StatusDistribution     []StatusCount   `json:"statusDistribution"`
	CategoryDistribution   []CategoryCount `json:"categoryDistribution"`
	PriorityDistribution   []PriorityCount `json:"priorityDistribution"`
	AssignmentDistribution []StatusCount   `json:"assignmentDistribution"`
}

type DepartmentStat struct {
	Department           string  `json:"department"`
	Officers             int     `json:"officers"`
	TotalAssignments     int     `json:"totalAssignments"`
	CompletedAssignments int     `json:"completedAssignments"`
	CompletionRate       float64 `json:"completionRate"`
	CompletionPercent    int     `json:"completionPercent"`
}

type TrendDay struct {
	Date       string `json:"date"`
	Complaints int    `json:"complaints"`
	Resolved   int    `json:"resolved"`
}

type Report struct {
	Summary          Summary           `json:"summary"`
	DepartmentStats  []DepartmentStat  `json:"departmentStats"`
	RecentComplaints []RecentComplaint `json:"recentComplaints"`
	TopOfficers      []TopOfficer      `json:"topOfficers"`
	TrendData        []TrendDay        `json:"trendData"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// Builder projects reports and dashboards from a Source.
type Builder struct {
	source Source
	cache  Cache
	log    zerolog.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewBuilder(source Source, cache Cache, log zerolog.Logger, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.Local
	}
	return &Builder{
		source: source,
		cache:  cache,
		log:    log,
		now:    time.Now,
		loc:    loc,
	}
}

// WithClock replaces the builder's time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build assembles the report visible to p. Department statistics and top
// officers are only filled in for principals allowed to see them.
func (b *Builder) Build(ctx context.Context, p lifecycle.Principal, q Query) (Report, error) {
	if !p.Can(lifecycle.CapViewReports) {
		return Report{}, fmt.Errorf("role %q cannot view reports: %w", p.Role, lifecycle.ErrForbidden)
	}
	w, err := q.window()
	if err != nil {
		return Report{}, err
	}

	key := reportKey(p, q)
	var cached Report
	if b.cache != nil {
		hit, err := b.cache.Get(ctx, key, &cached)
		if err != nil {
			b.log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	report, err := b.build(ctx, p, q, w)
	if err != nil {
		return Report{}, err
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, key, report); err != nil {
			b.log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
		}
	}
	return report, nil
}

func (b *Builder) build(ctx context.Context, p lifecycle.Principal, q Query, w Window) (Report, error) {
	scope, err := lifecycle.Scope(p, models.ComplaintFilter{})
	if err != nil {
		return Report{}, err
	}

	counts, err := b.source.ComplaintCounts(ctx, scope, w)
	if err != nil {
		return Report{}, fmt.Errorf("complaint counts: %w", err)
	}

	assignmentScope := AssignmentScope{Department: q.Department}
	if !p.Can(lifecycle.CapViewAllComplaints) {
		assignmentScope.OfficerID = p.ID
	}
	assignments, err := b.source.AssignmentCounts(ctx, assignmentScope, w)
	if err != nil {
		return Report{}, fmt.Errorf("assignment counts: %w", err)
	}

	report := Report{
		Summary:          summarize(counts, assignments),
		DepartmentStats:  []DepartmentStat{},
		TopOfficers:      []TopOfficer{},
		RecentComplaints: []RecentComplaint{},
		GeneratedAt:      b.now().UTC(),
	}

	if p.Can(lifecycle.CapViewDepartmentReports) {
		totals, err := b.source.DepartmentTotals(ctx, w)
		if err != nil {
			return Report{}, fmt.Errorf("department totals: %w", err)
		}
		for _, t := range totals {
			report.DepartmentStats = append(report.DepartmentStats, departmentStat(t))
		}

		top, err := b.source.TopOfficers(ctx, w, topOfficers)
		if err != nil {
			return Report{}, fmt.Errorf("top officers: %w", err)
		}
		if top != nil {
			report.TopOfficers = top
		}
	}

	recent, err := b.source.RecentComplaints(ctx, scope, w, recentInReport)
	if err != nil {
		return Report{}, fmt.Errorf("recent complaints: %w", err)
	}
	if recent != nil {
		report.RecentComplaints = recent
	}

	report.TrendData, err = b.trend(ctx, scope)
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func summarize(counts ComplaintCounts, assignments map[models.AssignmentStatus]int) Summary {
	s := Summary{
		StatusDistribution:     make([]StatusCount, 0, len(models.ComplaintStatuses)),
		CategoryDistribution:   []CategoryCount{},
		PriorityDistribution:   []PriorityCount{},
		AssignmentDistribution: []StatusCount{},
	}
	for _, status := range models.ComplaintStatuses {
		n := counts.ByStatus[status]
		s.TotalComplaints += n
		s.StatusDistribution = append(s.StatusDistribution, StatusCount{Status: string(status), Count: n})
	}
	for _, c := range models.Categories {
		s.CategoryDistribution = append(s.CategoryDistribution, CategoryCount{Category: c, Count: counts.ByCategory[c]})
	}
	for _, p := range models.Priorities {
		s.PriorityDistribution = append(s.PriorityDistribution, PriorityCount{Priority: p, Count: counts.ByPriority[p]})
	}
	for _, status := range models.AssignmentStatuses {
		s.AssignmentDistribution = append(s.AssignmentDistribution, StatusCount{Status: string(status), Count: assignments[status]})
	}
	return s
}

// CompletionRate is completed/total, 0 when there is nothing to complete.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

func departmentStat(t DepartmentTotals) DepartmentStat {
	rate := CompletionRate(t.CompletedAssignments, t.TotalAssignments)
	return DepartmentStat{
		Department:           t.Department,
		Officers:             t.Officers,
		TotalAssignments:     t.TotalAssignments,
		CompletedAssignments: t.CompletedAssignments,
		CompletionRate:       rate,
		CompletionPercent:    int(math.Round(rate * 100)),
	}
}

// trend counts, for each of the last seven local days ending today,
// complaints created that day and complaints whose last update while
// resolved fell on that day.
func (b *Builder) trend(ctx context.Context, scope models.ComplaintFilter) ([]TrendDay, error) {
	now := b.now().In(b.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc)

	days := make([]TrendDay, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		end := start.AddDate(0, 0, 1)

		created, err := b.source.CreatedBetween(ctx, scope, start, end)
		if err != nil {
			return nil, fmt.Errorf("trend created: %w", err)
		}
		resolved, err := b.source.ResolvedBetween(ctx, scope, start, end)
		if err != nil {
			return nil, fmt.Errorf("trend resolved: %w", err)
		}
		days = append(days, TrendDay{
			Date:       start.Format(time.DateOnly),
			Complaints: created,
			Resolved:   resolved,
		})
	}
	return days, nil
}
