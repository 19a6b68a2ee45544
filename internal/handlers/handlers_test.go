package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/middleware"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/reporting"
	"github.com/Saman-dev12/civic/internal/security"
	"github.com/Saman-dev12/civic/internal/settings"
)

const testSecret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLifecycle struct {
	err         error
	filed       lifecycle.NewComplaint
	listQuery   lifecycle.ListQuery
	newAssign   lifecycle.NewAssignment
	assignments models.AssignmentFilter
}

func (s *stubLifecycle) FileComplaint(_ context.Context, p lifecycle.Principal, in lifecycle.NewComplaint) (models.Complaint, error) {
	s.filed = in
	return models.Complaint{ID: "c1", CitizenID: p.ID, Title: in.Title, Status: models.ComplaintStatusPending}, s.err
}

func (s *stubLifecycle) GetComplaint(_ context.Context, _ lifecycle.Principal, id string) (lifecycle.ComplaintDetail, error) {
	if s.err != nil {
		return lifecycle.ComplaintDetail{}, s.err
	}
	current := models.AssignmentDetail{Assignment: models.Assignment{ID: "a1", OfficerID: "officer-1"}, OfficerName: "Meera"}
	return lifecycle.ComplaintDetail{
		Complaint:   models.Complaint{ID: id},
		Assignments: []models.AssignmentDetail{current},
		Current:     &current,
	}, nil
}

func (s *stubLifecycle) ListComplaints(_ context.Context, _ lifecycle.Principal, q lifecycle.ListQuery) (lifecycle.ComplaintPage, error) {
	s.listQuery = q
	return lifecycle.ComplaintPage{Complaints: []models.Complaint{{ID: "c1"}}, Page: 2, Limit: 5, Total: 6, Pages: 2}, s.err
}

func (s *stubLifecycle) UpdateComplaintStatus(_ context.Context, _ lifecycle.Principal, id string, status models.ComplaintStatus) (models.Complaint, error) {
	return models.Complaint{ID: id, Status: status}, s.err
}

func (s *stubLifecycle) CreateAssignment(_ context.Context, p lifecycle.Principal, in lifecycle.NewAssignment) (models.Assignment, error) {
	s.newAssign = in
	return models.Assignment{ID: "a1", ComplaintID: in.ComplaintID, OfficerID: in.OfficerID, AssignedBy: p.ID, DueDate: in.DueDate}, s.err
}

func (s *stubLifecycle) UpdateAssignment(_ context.Context, _ lifecycle.Principal, id string, u lifecycle.AssignmentUpdate) (models.Assignment, error) {
	a := models.Assignment{ID: id}
	if u.Status != nil {
		a.Status = *u.Status
	}
	return a, s.err
}

func (s *stubLifecycle) ListAssignments(_ context.Context, _ lifecycle.Principal, f models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	s.assignments = f
	return nil, s.err
}

func (s *stubLifecycle) AddComment(_ context.Context, p lifecycle.Principal, complaintID, content string) (models.CommentDetail, error) {
	return models.CommentDetail{Comment: models.Comment{ID: "m1", ComplaintID: complaintID, UserID: p.ID, Content: content}, AuthorRole: p.Role}, s.err
}

func (s *stubLifecycle) ListComments(context.Context, lifecycle.Principal, string) ([]models.CommentDetail, error) {
	return nil, s.err
}

type stubReports struct {
	query reporting.Query
	err   error
}

func (s *stubReports) Build(_ context.Context, p lifecycle.Principal, q reporting.Query) (reporting.Report, error) {
	s.query = q
	if !p.Can(lifecycle.CapViewReports) {
		return reporting.Report{}, fmt.Errorf("no reports: %w", lifecycle.ErrForbidden)
	}
	return reporting.Report{}, s.err
}

func (s *stubReports) StaffDashboard(context.Context, lifecycle.Principal) (reporting.StaffStats, error) {
	return reporting.StaffStats{TotalComplaints: 12, ActiveOfficers: 3}, s.err
}

func (s *stubReports) CitizenDashboard(context.Context, lifecycle.Principal) (reporting.CitizenStats, error) {
	return reporting.CitizenStats{Total: 2, Pending: 1}, s.err
}

func (s *stubReports) RecentComplaints(context.Context, lifecycle.Principal, int) ([]reporting.RecentComplaint, error) {
	return []reporting.RecentComplaint{}, s.err
}

type stubSettings struct {
	current     settings.Settings
	maintenance bool
}

func (s *stubSettings) Get() settings.Settings { return s.current }

func (s *stubSettings) Update(_ context.Context, p settings.Patch) (settings.Settings, error) {
	next := p.Apply(s.current)
	if err := next.Validate(); err != nil {
		return settings.Settings{}, err
	}
	s.current = next
	return next, nil
}

func (s *stubSettings) MaintenanceMode() bool { return s.maintenance }

type stubSessions struct{}

func (stubSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	return models.Session{ID: id, UserID: id, DeviceID: "d", LastSeenAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}, nil
}
func (stubSessions) DeleteByID(context.Context, string) error { return nil }

func (stubSessions) Touch(context.Context, string, string, string) error { return nil }

type stubUsers map[string]models.User

func (s stubUsers) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := s[id]
	if !ok {
		return models.User{}, errors.New("no user")
	}
	return u, nil
}

var testUsers = stubUsers{
	"citizen-1": {ID: "citizen-1", Name: "Asha", Role: models.UserRoleCitizen, IsActive: true},
	"officer-1": {ID: "officer-1", Name: "Meera", Role: models.UserRoleOfficer, IsActive: true},
	"admin-1":   {ID: "admin-1", Name: "Admin", Role: models.UserRoleAdmin, IsActive: true},
}

type testServer struct {
	router    *gin.Engine
	lifecycle *stubLifecycle
	reports   *stubReports
	settings  *stubSettings
}

func newTestServer(t *testing.T, checks ...healthCheck) *testServer {
	t.Helper()
	ts := &testServer{
		lifecycle: &stubLifecycle{},
		reports:   &stubReports{},
		settings:  &stubSettings{current: settings.Defaults()},
	}
	h := HandlerSet{
		log:       zerolog.Nop(),
		cfg:       &config.AppConfig{Environment: "test"},
		lifecycle: ts.lifecycle,
		reports:   ts.reports,
		settings:  ts.settings,
		requireAuth: middleware.Auth(middleware.AuthConfig{
			Secret:   testSecret,
			Users:    testUsers,
			Sessions: stubSessions{},
		}),
		checks: checks,
	}
	ts.router = gin.New()
	h.Register(ts.router.Group("/api"))
	return ts
}

// do sends a request as userID; an empty userID sends no token. Sessions
// share the user's id so the stub session store can resolve them.
func (ts *testServer) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := security.GenerateAccessToken(testSecret, security.AccessSubject{
			UserID: userID, SessionID: userID, DeviceID: "d", Role: string(testUsers[userID].Role),
		}, time.Now(), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("complaint x: %w", lifecycle.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("hidden: %w", lifecycle.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("active assignment: %w", lifecycle.ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("bad status: %w", lifecycle.ErrInvalid), http.StatusBadRequest, "invalid_request"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ts := newTestServer(t)
			ts.lifecycle.err = tt.err
			w := ts.do(t, http.MethodGet, "/api/v1/complaints/c1", "citizen-1", "")
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	ts := newTestServer(t)
	ts.lifecycle.err = errors.New("pq: password authentication failed")
	w := ts.do(t, http.MethodGet, "/api/v1/complaints/c1", "citizen-1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestGetComplaintDetail(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/complaints/c1", "citizen-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"currentAssignment":{"id":"a1"`)
	assert.Contains(t, w.Body.String(), `"officerName":"Meera"`)
	assert.Contains(t, w.Body.String(), `"comments":[]`)
}

func TestRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/complaints", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFileComplaint(t *testing.T) {
	ts := newTestServer(t)
	body := `{"title":"Pothole on MG Road","description":"Deep pothole near the bus stop","category":"roads","location":"MG Road"}`

	w := ts.do(t, http.MethodPost, "/api/v1/complaints", "citizen-1", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
	assert.Equal(t, models.CategoryRoads, ts.lifecycle.filed.Category)

	w = ts.do(t, http.MethodPost, "/api/v1/complaints", "admin-1", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/complaints", "citizen-1", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListComplaintsQuery(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/complaints?status=pending&search=road&page=2&limit=5", "officer-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ComplaintStatusPending, ts.lifecycle.listQuery.Status)
	assert.Equal(t, "road", ts.lifecycle.listQuery.Search)
	assert.Equal(t, 2, ts.lifecycle.listQuery.Page)
	assert.Equal(t, 5, ts.lifecycle.listQuery.Limit)
	assert.Contains(t, w.Body.String(), `"pagination":{"page":2,"limit":5,"total":6,"pages":2}`)
}

func TestUpdateComplaintStatus(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPut, "/api/v1/complaints/c1/status", "admin-1", `{"status":"closed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"closed"`)

	w = ts.do(t, http.MethodPut, "/api/v1/complaints/c1/status", "admin-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddComment(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/complaints/c1/comments", "officer-1", `{"content":"On site tomorrow"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"authorName":"Meera"`)
	assert.Contains(t, w.Body.String(), `"authorRole":"officer"`)
}

func TestAssignmentsAreStaffOnly(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/v1/assignments", "citizen-1", "").Code)

	w := ts.do(t, http.MethodGet, "/api/v1/assignments?department=roads&status=assigned", "officer-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "roads", ts.lifecycle.assignments.Department)
	assert.Contains(t, w.Body.String(), `"assignments":[]`)
}

func TestCreateAssignment(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/assignments", "officer-1", `{"complaintId":"c1","officerId":"officer-1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/assignments", "admin-1", `{"complaintId":"c1","officerId":"officer-1","priority":"high","dueDate":"2026-04-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, ts.lifecycle.newAssign.DueDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *ts.lifecycle.newAssign.DueDate)
	assert.Equal(t, models.PriorityHigh, ts.lifecycle.newAssign.Priority)

	w = ts.do(t, http.MethodPost, "/api/v1/assignments", "admin-1", `{"complaintId":"c1","officerId":"officer-1","dueDate":"next week"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.lifecycle.err = fmt.Errorf("complaint c1 has an active assignment: %w", lifecycle.ErrConflict)
	w = ts.do(t, http.MethodPost, "/api/v1/assignments", "admin-1", `{"complaintId":"c1","officerId":"officer-1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateAssignment(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPut, "/api/v1/assignments/a1", "officer-1", `{"status":"in_progress","notes":"crew dispatched"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"in_progress"`)
}

func TestDashboardStatsByRole(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/dashboard/stats", "admin-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalComplaints":12`)

	w = ts.do(t, http.MethodGet, "/api/v1/dashboard/stats", "citizen-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":1`)

	w = ts.do(t, http.MethodGet, "/api/v1/dashboard/recent-complaints?limit=3", "citizen-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/v1/admin/settings", "officer-1", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/v1/admin/settings", "citizen-1", "").Code)

	w := ts.do(t, http.MethodGet, "/api/v1/admin/settings", "admin-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"statusTransitions":"permissive"`)

	w = ts.do(t, http.MethodPut, "/api/v1/admin/settings", "admin-1", `{"statusTransitions":"forward_only","maintenanceMode":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lifecycle.PolicyForwardOnly, ts.settings.current.StatusTransitions)

	w = ts.do(t, http.MethodPut, "/api/v1/admin/settings", "admin-1", `{"defaultPriority":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportsQuery(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/admin/reports?startDate=2026-03-01&endDate=2026-03-07&department=roads", "officer-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ts.reports.query.Start)
	require.NotNil(t, ts.reports.query.End)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *ts.reports.query.Start)
	assert.Equal(t, time.Date(2026, 3, 7, 23, 59, 59, 999999999, time.UTC), *ts.reports.query.End)
	assert.Equal(t, "roads", ts.reports.query.Department)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/admin/reports?startDate=yesterday", "admin-1", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/v1/admin/reports", "citizen-1", "").Code)
}

func TestMaintenanceModeBlocksCitizens(t *testing.T) {
	ts := newTestServer(t)
	ts.settings.maintenance = true

	w := ts.do(t, http.MethodGet, "/api/v1/complaints", "citizen-1", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/complaints", "admin-1", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodPost, "/api/v1/auth/register", "", `{}`).Code)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	ts := newTestServer(t, healthCheck{"database", ok}, healthCheck{"cache", ok})
	w := ts.do(t, http.MethodGet, "/api/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	ts = newTestServer(t, healthCheck{"database", ok}, healthCheck{"storage", down})
	w = ts.do(t, http.MethodGet, "/api/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"error"`)
}
