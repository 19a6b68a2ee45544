package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/events"
	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/middleware"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/reporting"
	"github.com/Saman-dev12/civic/internal/repository"
	"github.com/Saman-dev12/civic/internal/service"
	"github.com/Saman-dev12/civic/internal/settings"
	"github.com/Saman-dev12/civic/internal/storage"
)

// Lifecycle is the complaint workflow the handlers drive; *lifecycle.Engine
// implements it.
type Lifecycle interface {
	FileComplaint(ctx context.Context, p lifecycle.Principal, input lifecycle.NewComplaint) (models.Complaint, error)
	GetComplaint(ctx context.Context, p lifecycle.Principal, id string) (lifecycle.ComplaintDetail, error)
	ListComplaints(ctx context.Context, p lifecycle.Principal, query lifecycle.ListQuery) (lifecycle.ComplaintPage, error)
	UpdateComplaintStatus(ctx context.Context, p lifecycle.Principal, complaintID string, status models.ComplaintStatus) (models.Complaint, error)
	CreateAssignment(ctx context.Context, p lifecycle.Principal, input lifecycle.NewAssignment) (models.Assignment, error)
	UpdateAssignment(ctx context.Context, p lifecycle.Principal, assignmentID string, update lifecycle.AssignmentUpdate) (models.Assignment, error)
	ListAssignments(ctx context.Context, p lifecycle.Principal, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)
	AddComment(ctx context.Context, p lifecycle.Principal, complaintID, content string) (models.CommentDetail, error)
	ListComments(ctx context.Context, p lifecycle.Principal, complaintID string) ([]models.CommentDetail, error)
}

type Reports interface {
	Build(ctx context.Context, p lifecycle.Principal, q reporting.Query) (reporting.Report, error)
	StaffDashboard(ctx context.Context, p lifecycle.Principal) (reporting.StaffStats, error)
	CitizenDashboard(ctx context.Context, p lifecycle.Principal) (reporting.CitizenStats, error)
	RecentComplaints(ctx context.Context, p lifecycle.Principal, limit int) ([]reporting.RecentComplaint, error)
}

type SettingsStore interface {
	Get() settings.Settings
	Update(ctx context.Context, p settings.Patch) (settings.Settings, error)
	MaintenanceMode() bool
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	officers    *service.OfficerService
	lifecycle   Lifecycle
	reports     Reports
	settings    SettingsStore
	requireAuth gin.HandlerFunc
	checks      []healthCheck
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	objects *storage.ObjectStore,
	settingsStore *settings.Store,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reportRepo := repository.NewReportRepository(db)

	publisher := events.NewStreamPublisher(cache, cfg.Events.Stream, cfg.Events.MaxLen)
	engine := lifecycle.NewEngine(repository.NewStore(db), settingsStore, publisher, log)
	builder := reporting.NewBuilder(
		reportRepo,
		reporting.NewRedisCache(cache, cfg.Reports.CacheTTL),
		log,
		cfg.Reports.Location(),
	)

	limiter := service.NewRedisLimiter(cache, 5, 15*time.Minute)
	auth := service.NewAuthService(userRepo, sessionRepo, limiter, cfg.Security, log)
	officers := service.NewOfficerService(auth, userRepo, sessionRepo, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		officers:    officers,
		lifecycle:   engine,
		reports:     builder,
		settings:    settingsStore,
		requireAuth: middleware.Auth(middleware.AuthConfig{
			Secret:   cfg.Security.JWTAccessSecret,
			Users:    userRepo,
			Sessions: sessionRepo,
			Idle:     settingsStore,
		}),
		checks: []healthCheck{
			{name: "database", check: db.Ping},
			{name: "cache", check: func(ctx context.Context) error { return cache.Ping(ctx).Err() }},
			{name: "storage", check: objects.Ping},
		},
	}
}

// AuthService exposes the identity service for startup tasks.
func (h HandlerSet) AuthService() *service.AuthService {
	return h.authService
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	maintenance := middleware.Maintenance(h.settings)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", maintenance, h.RegisterCitizen)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		protected := v1.Group("/auth")
		protected.Use(h.requireAuth)
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:deviceId", h.RevokeSession)
	}

	complaints := v1.Group("/complaints")
	complaints.Use(h.requireAuth, maintenance)
	complaints.POST("", middleware.RequireCapability(lifecycle.CapFileComplaint), h.FileComplaint)
	complaints.GET("", h.ListComplaints)
	complaints.GET("/:id", h.GetComplaint)
	complaints.PUT("/:id/status", h.UpdateComplaintStatus)
	complaints.GET("/:id/comments", h.ListComments)
	complaints.POST("/:id/comments", middleware.RequireCapability(lifecycle.CapComment), h.AddComment)

	assignments := v1.Group("/assignments")
	assignments.Use(h.requireAuth, maintenance, middleware.RequireRoles(models.UserRoleOfficer, models.UserRoleAdmin))
	assignments.GET("", h.ListAssignments)
	assignments.POST("", middleware.RequireCapability(lifecycle.CapCreateAssignment), h.CreateAssignment)
	assignments.PUT("/:id", h.UpdateAssignment)

	dashboard := v1.Group("/dashboard")
	dashboard.Use(h.requireAuth, maintenance)
	dashboard.GET("/stats", h.DashboardStats)
	dashboard.GET("/recent-complaints", h.RecentComplaints)

	admin := v1.Group("/admin")
	admin.Use(h.requireAuth, middleware.RequireRoles(models.UserRoleOfficer, models.UserRoleAdmin))
	admin.GET("/reports", middleware.RequireCapability(lifecycle.CapViewReports), h.Reports)

	officers := admin.Group("/officers", middleware.RequireCapability(lifecycle.CapManageOfficers))
	officers.GET("", h.ListOfficers)
	officers.POST("", h.CreateOfficer)
	officers.GET("/:id", h.GetOfficer)
	officers.PUT("/:id", h.UpdateOfficer)

	settingsGroup := admin.Group("/settings", middleware.RequireCapability(lifecycle.CapManageSettings))
	settingsGroup.GET("", h.GetSettings)
	settingsGroup.PUT("", h.UpdateSettings)
}
