package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/security"
)

// OfficerService manages staff accounts from the admin console. Accounts
// are deactivated, never deleted.
type OfficerService struct {
	auth     *AuthService
	users    UserStore
	sessions SessionStore
	log      zerolog.Logger
}

func NewOfficerService(auth *AuthService, users UserStore, sessions SessionStore, log zerolog.Logger) *OfficerService {
	return &OfficerService{auth: auth, users: users, sessions: sessions, log: log}
}

type NewOfficer struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Phone      string `json:"phone" validate:"omitempty,min=10,max=20"`
	Department string `json:"department" validate:"required,max=100"`
	EmployeeID string `json:"employeeId" validate:"max=50"`
}

type OfficerUpdate struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,min=10,max=20"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	EmployeeID *string `json:"employeeId" validate:"omitempty,max=50"`
	IsActive   *bool   `json:"isActive"`
}

func authorizeManage(p lifecycle.Principal) error {
	if !p.Can(lifecycle.CapManageOfficers) {
		return fmt.Errorf("role %q cannot manage officers: %w", p.Role, lifecycle.ErrForbidden)
	}
	return nil
}

func (s *OfficerService) List(ctx context.Context, p lifecycle.Principal) ([]models.Officer, error) {
	if err := authorizeManage(p); err != nil {
		return nil, err
	}
	return s.users.ListOfficers(ctx)
}

// Get returns an officer or admin account.
func (s *OfficerService) Get(ctx context.Context, p lifecycle.Principal, id string) (models.User, error) {
	if err := authorizeManage(p); err != nil {
		return models.User{}, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !user.Role.Staff() {
		return models.User{}, fmt.Errorf("officer %s: %w", id, lifecycle.ErrNotFound)
	}
	return user, nil
}

// Create adds an officer with a generated password, returned once.
func (s *OfficerService) Create(ctx context.Context, p lifecycle.Principal, input NewOfficer) (models.User, string, error) {
	if err := authorizeManage(p); err != nil {
		return models.User{}, "", err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Department = strings.TrimSpace(input.Department)
	input.EmployeeID = strings.TrimSpace(input.EmployeeID)
	if err := lifecycle.ValidateInput(input); err != nil {
		return models.User{}, "", err
	}

	password, err := security.GenerateTemporaryPassword(12)
	if err != nil {
		return models.User{}, "", err
	}
	user, err := s.auth.newUser(ctx, models.User{
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Role:       models.UserRoleOfficer,
		Department: optionalString(input.Department),
		EmployeeID: optionalString(input.EmployeeID),
		IsActive:   true,
	}, password)
	if err != nil {
		return models.User{}, "", err
	}

	s.log.Info().Str("officer_id", user.ID).Str("actor_id", p.ID).Msg("officer created")
	return user, password, nil
}

// Update edits a staff account. Deactivation revokes every session of the
// account.
func (s *OfficerService) Update(ctx context.Context, p lifecycle.Principal, id string, input OfficerUpdate) (models.User, error) {
	user, err := s.Get(ctx, p, id)
	if err != nil {
		return models.User{}, err
	}
	if err := lifecycle.ValidateInput(input); err != nil {
		return models.User{}, err
	}
	if input.IsActive != nil && !*input.IsActive && id == p.ID {
		return models.User{}, fmt.Errorf("cannot deactivate own account: %w", lifecycle.ErrInvalid)
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Department != nil {
		user.Department = optionalString(strings.TrimSpace(*input.Department))
	}
	if input.EmployeeID != nil {
		user.EmployeeID = optionalString(strings.TrimSpace(*input.EmployeeID))
	}
	wasActive := user.IsActive
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return models.User{}, err
	}
	if wasActive && !user.IsActive {
		if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
			s.log.Error().Err(err).Str("officer_id", user.ID).Msg("revoke sessions failed")
		}
		s.log.Info().Str("officer_id", user.ID).Str("actor_id", p.ID).Msg("officer deactivated")
	}
	return user, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
