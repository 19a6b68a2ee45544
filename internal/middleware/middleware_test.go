package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/security"
)

const testSecret = "test-secret"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessions struct {
	sessions map[string]models.Session
	deleted  []string
	touched  []string
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return models.Session{}, errors.New("session not found")
	}
	return s, nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) Touch(_ context.Context, id string, _ string, _ string) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeUsers map[string]models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, errors.New("user not found")
	}
	return u, nil
}

type fixedIdle time.Duration

func (f fixedIdle) SessionTimeout() time.Duration { return time.Duration(f) }

type flag bool

func (f flag) MaintenanceMode() bool { return bool(f) }

type authFixture struct {
	sessions *fakeSessions
	users    fakeUsers
	router   *gin.Engine
}

func newAuthFixture(t *testing.T, extra ...gin.HandlerFunc) *authFixture {
	t.Helper()
	f := &authFixture{
		sessions: &fakeSessions{sessions: map[string]models.Session{
			"s-citizen": {ID: "s-citizen", UserID: "citizen-1", DeviceID: "d1", LastSeenAt: testNow.Add(-time.Minute), ExpiresAt: testNow.Add(time.Hour)},
			"s-admin":   {ID: "s-admin", UserID: "admin-1", DeviceID: "d2", LastSeenAt: testNow.Add(-time.Minute), ExpiresAt: testNow.Add(time.Hour)},
			"s-idle":    {ID: "s-idle", UserID: "citizen-1", DeviceID: "d3", LastSeenAt: testNow.Add(-2 * time.Hour), ExpiresAt: testNow.Add(time.Hour)},
			"s-gone":    {ID: "s-gone", UserID: "citizen-1", DeviceID: "d4", LastSeenAt: testNow, ExpiresAt: testNow.Add(-time.Second)},
			"s-off":     {ID: "s-off", UserID: "officer-off", DeviceID: "d5", LastSeenAt: testNow, ExpiresAt: testNow.Add(time.Hour)},
		}},
		users: fakeUsers{
			"citizen-1":   {ID: "citizen-1", Role: models.UserRoleCitizen, IsActive: true},
			"admin-1":     {ID: "admin-1", Role: models.UserRoleAdmin, IsActive: true},
			"officer-off": {ID: "officer-off", Role: models.UserRoleOfficer, IsActive: false},
		},
	}

	f.router = gin.New()
	handlers := []gin.HandlerFunc{Auth(AuthConfig{
		Secret:   testSecret,
		Users:    f.users,
		Sessions: f.sessions,
		Idle:     fixedIdle(30 * time.Minute),
		Now:      func() time.Time { return testNow },
	})}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "role": p.Role})
	})
	f.router.GET("/me", handlers...)
	return f
}

func (f *authFixture) get(t *testing.T, userID, sessionID, deviceID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if sessionID != "" {
		token, err := security.GenerateAccessToken(testSecret, security.AccessSubject{
			UserID: userID, SessionID: sessionID, DeviceID: deviceID, Role: "citizen",
		}, time.Now(), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsLiveSession(t *testing.T) {
	f := newAuthFixture(t)
	w := f.get(t, "citizen-1", "s-citizen", "d1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"citizen-1"`)
	assert.Equal(t, []string{"s-citizen"}, f.sessions.touched)
}

func TestAuthRejections(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		session    string
		device     string
		wantStatus int
		wantCode   string
	}{
		{"missing token", "", "", "", http.StatusUnauthorized, "missing_token"},
		{"unknown session", "citizen-1", "nope", "d1", http.StatusUnauthorized, "session_not_found"},
		{"device mismatch", "citizen-1", "s-citizen", "other", http.StatusUnauthorized, "session_mismatch"},
		{"idle session", "citizen-1", "s-idle", "d3", http.StatusUnauthorized, "session_expired"},
		{"expired session", "citizen-1", "s-gone", "d4", http.StatusUnauthorized, "session_expired"},
		{"inactive user", "officer-off", "s-off", "d5", http.StatusForbidden, "user_inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			w := f.get(t, tt.user, tt.session, tt.device)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestAuthDropsIdleSession(t *testing.T) {
	f := newAuthFixture(t)
	f.get(t, "citizen-1", "s-idle", "d3")
	assert.Equal(t, []string{"s-idle"}, f.sessions.deleted)
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	f := newAuthFixture(t)
	token, err := security.GenerateAccessToken("other-secret", security.AccessSubject{
		UserID: "citizen-1", SessionID: "s-citizen", DeviceID: "d1",
	}, time.Now(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_token")
}

func TestRequireCapability(t *testing.T) {
	f := newAuthFixture(t, RequireCapability(lifecycle.CapManageSettings))
	assert.Equal(t, http.StatusForbidden, f.get(t, "citizen-1", "s-citizen", "d1").Code)
	assert.Equal(t, http.StatusOK, f.get(t, "admin-1", "s-admin", "d2").Code)
}

func TestRequireRoles(t *testing.T) {
	f := newAuthFixture(t, RequireRoles(models.UserRoleCitizen))
	assert.Equal(t, http.StatusOK, f.get(t, "citizen-1", "s-citizen", "d1").Code)
	assert.Equal(t, http.StatusForbidden, f.get(t, "admin-1", "s-admin", "d2").Code)
}

func TestMaintenance(t *testing.T) {
	f := newAuthFixture(t, Maintenance(flag(true)))
	w := f.get(t, "citizen-1", "s-citizen", "d1")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "maintenance_mode")
	assert.Equal(t, http.StatusOK, f.get(t, "admin-1", "s-admin", "d2").Code)

	open := newAuthFixture(t, Maintenance(flag(false)))
	assert.Equal(t, http.StatusOK, open.get(t, "citizen-1", "s-citizen", "d1").Code)
}

func TestMaintenanceWithoutUser(t *testing.T) {
	r := gin.New()
	r.POST("/register", Maintenance(flag(true)), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/register", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()), Recovery(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_server_error")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://civic.example.org/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://civic.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://civic.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
