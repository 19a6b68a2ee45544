package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/ids"
	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/repository"
	"github.com/Saman-dev12/civic/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", lifecycle.ErrConflict)
)

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	ListOfficers(ctx context.Context) ([]models.Officer, error)
	UpdateProfile(ctx context.Context, user models.User) error
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByDevice(ctx context.Context, userID string, deviceID string) error
	DeleteByUser(ctx context.Context, userID string) error
	FindByRefreshHash(ctx context.Context, userID string, refreshHash []byte) (models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	limiter  AttemptLimiter
	cfg      config.SecurityConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the identity gate. limiter may be nil.
func NewAuthService(
	users UserStore,
	sessions SessionStore,
	limiter AttemptLimiter,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"required,min=10,max=20"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
	DeviceID     string
	ExpiresAt    time.Time
}

type ClientInfo struct {
	DeviceID   string
	DeviceName string
	IPAddress  string
	UserAgent  string
}

// Register creates a citizen account and opens its first session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, client ClientInfo) (AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := lifecycle.ValidateInput(input); err != nil {
		return AuthResult{}, err
	}

	user, err := s.newUser(ctx, models.User{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     models.UserRoleCitizen,
		IsActive: true,
	}, input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("citizen registered")
	return s.createSession(ctx, user, client)
}

func (s *AuthService) newUser(ctx context.Context, user models.User, password string) (models.User, error) {
	if _, err := s.users.FindByEmail(ctx, user.Email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	user.ID = ids.New()
	user.PasswordHash = hash
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *AuthService) Login(ctx context.Context, input LoginInput, client ClientInfo) (AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := lifecycle.ValidateInput(input); err != nil {
		return AuthResult{}, err
	}

	if s.limiter != nil {
		blocked, err := s.limiter.Blocked(ctx, input.Email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter unavailable")
		} else if blocked {
			return AuthResult{}, ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordFailure(ctx, input.Email)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		s.recordFailure(ctx, input.Email)
		return AuthResult{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return AuthResult{}, ErrUserInactive
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, input.Email); err != nil {
			s.log.Warn().Err(err).Msg("reset login attempts failed")
		}
	}
	if security.NeedsRehash(user.PasswordHash) {
		s.log.Debug().Str("user_id", user.ID).Msg("password hash uses outdated parameters")
	}

	return s.createSession(ctx, user, client)
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("record login failure")
	}
}

func (s *AuthService) createSession(ctx context.Context, user models.User, client ClientInfo) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, err
	}

	deviceID := client.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}
	deviceName := client.DeviceName
	if deviceName == "" {
		deviceName = "Unknown Device"
	}

	now := s.now()
	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		DeviceID:         deviceID,
		DeviceName:       deviceName,
		RefreshTokenHash: refreshHash,
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
		CreatedAt:        now,
		LastSeenAt:       now,
		ExpiresAt:        now.Add(s.cfg.JWTRefreshTTL),
	}

	accessToken, err := s.accessToken(user, session, now)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}
	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		DeviceID:     deviceID,
		ExpiresAt:    now.Add(s.cfg.JWTAccessTTL),
	}, nil
}

func (s *AuthService) accessToken(user models.User, session models.Session, now time.Time) (string, error) {
	return security.GenerateAccessToken(s.cfg.JWTAccessSecret, security.AccessSubject{
		UserID:    user.ID,
		SessionID: session.ID,
		DeviceID:  session.DeviceID,
		Role:      string(user.Role),
	}, now, s.cfg.JWTAccessTTL)
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldestSessions(ctx, userID, s.cfg.MaxSessions)
}

type RefreshInput struct {
	UserID       string `json:"userId" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
	DeviceID     string `json:"deviceId" validate:"required"`
}

// Refresh rotates the refresh token of one device session.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (AuthResult, error) {
	if err := lifecycle.ValidateInput(input); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, ErrUserInactive
	}

	session, err := s.sessions.FindByRefreshHash(ctx, input.UserID, security.HashRefreshToken(input.RefreshToken))
	if err != nil || session.DeviceID != input.DeviceID {
		return AuthResult{}, ErrInvalidCredentials
	}

	now := s.now()
	if session.ExpiresAt.Before(now) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	refreshToken, newHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, err
	}
	session.RefreshTokenHash = newHash
	session.ExpiresAt = now.Add(s.cfg.JWTRefreshTTL)
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	accessToken, err := s.accessToken(user, session, now)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		DeviceID:     session.DeviceID,
		ExpiresAt:    now.Add(s.cfg.JWTAccessTTL),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string, deviceID string) error {
	return s.sessions.DeleteByDevice(ctx, userID, deviceID)
}

func (s *AuthService) Sessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	count, err := s.users.CountByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		s.log.Warn().Msg("no admin account exists and bootstrap credentials are unset")
		return nil
	}
	if err := security.CheckPasswordPolicy(cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}
	user, err := s.newUser(ctx, models.User{
		Name:     name,
		Email:    normalizeEmail(cfg.AdminEmail),
		Role:     models.UserRoleAdmin,
		IsActive: true,
	}, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("bootstrap admin created")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
