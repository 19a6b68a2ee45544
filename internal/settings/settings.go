package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

// Settings is the site-wide configuration edited from the admin console.
type Settings struct {
	SiteName           string                     `json:"siteName" validate:"required,max=120"`
	SiteDescription    string                     `json:"siteDescription" validate:"max=500"`
	ContactEmail       string                     `json:"contactEmail" validate:"omitempty,email"`
	MaxFileSize        int                        `json:"maxFileSize" validate:"min=1,max=100"`
	AllowedFileTypes   []string                   `json:"allowedFileTypes" validate:"min=1,dive,required,alphanum,max=10"`
	AutoAssignment     bool                       `json:"autoAssignment"`
	EmailNotifications bool                       `json:"emailNotifications"`
	SMSNotifications   bool                       `json:"smsNotifications"`
	DefaultPriority    models.Priority            `json:"defaultPriority" validate:"oneof=low medium high critical"`
	DefaultCategory    models.Category            `json:"defaultCategory" validate:"oneof=roads streetlight sanitation water tree electricity drainage others"`
	MaintenanceMode    bool                       `json:"maintenanceMode"`
	SessionTimeout     int                        `json:"sessionTimeout" validate:"min=5,max=1440"`
	StatusTransitions  lifecycle.TransitionPolicy `json:"statusTransitions" validate:"oneof=permissive forward_only"`
}

func Defaults() Settings {
	return Settings{
		SiteName:           "Civic Complaints System",
		SiteDescription:    "Report and track civic issues in your community",
		ContactEmail:       "admin@civic.gov",
		MaxFileSize:        5,
		AllowedFileTypes:   []string{"jpg", "jpeg", "png", "pdf"},
		EmailNotifications: true,
		DefaultPriority:    models.PriorityMedium,
		DefaultCategory:    models.CategoryOthers,
		SessionTimeout:     30,
		StatusTransitions:  lifecycle.PolicyPermissive,
	}
}

func (s Settings) clone() Settings {
	s.AllowedFileTypes = append([]string(nil), s.AllowedFileTypes...)
	return s
}

// Patch is a partial update; nil fields keep their current value.
type Patch struct {
	SiteName           *string                     `json:"siteName"`
	SiteDescription    *string                     `json:"siteDescription"`
	ContactEmail       *string                     `json:"contactEmail"`
	MaxFileSize        *int                        `json:"maxFileSize"`
	AllowedFileTypes   []string                    `json:"allowedFileTypes"`
	AutoAssignment     *bool                       `json:"autoAssignment"`
	EmailNotifications *bool                       `json:"emailNotifications"`
	SMSNotifications   *bool                       `json:"smsNotifications"`
	DefaultPriority    *models.Priority            `json:"defaultPriority"`
	DefaultCategory    *models.Category            `json:"defaultCategory"`
	MaintenanceMode    *bool                       `json:"maintenanceMode"`
	SessionTimeout     *int                        `json:"sessionTimeout"`
	StatusTransitions  *lifecycle.TransitionPolicy `json:"statusTransitions"`
}

// Apply returns s with every non-nil field of p written over it.
func (p Patch) Apply(s Settings) Settings {
	s = s.clone()
	if p.SiteName != nil {
		s.SiteName = strings.TrimSpace(*p.SiteName)
	}
	if p.SiteDescription != nil {
		s.SiteDescription = strings.TrimSpace(*p.SiteDescription)
	}
	if p.ContactEmail != nil {
		s.ContactEmail = strings.TrimSpace(*p.ContactEmail)
	}
	if p.MaxFileSize != nil {
		s.MaxFileSize = *p.MaxFileSize
	}
	if p.AllowedFileTypes != nil {
		types := make([]string, 0, len(p.AllowedFileTypes))
		for _, t := range p.AllowedFileTypes {
			types = append(types, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), ".")))
		}
		s.AllowedFileTypes = types
	}
	if p.AutoAssignment != nil {
		s.AutoAssignment = *p.AutoAssignment
	}
	if p.EmailNotifications != nil {
		s.EmailNotifications = *p.EmailNotifications
	}
	if p.SMSNotifications != nil {
		s.SMSNotifications = *p.SMSNotifications
	}
	if p.DefaultPriority != nil {
		s.DefaultPriority = *p.DefaultPriority
	}
	if p.DefaultCategory != nil {
		s.DefaultCategory = *p.DefaultCategory
	}
	if p.MaintenanceMode != nil {
		s.MaintenanceMode = *p.MaintenanceMode
	}
	if p.SessionTimeout != nil {
		s.SessionTimeout = *p.SessionTimeout
	}
	if p.StatusTransitions != nil {
		s.StatusTransitions = *p.StatusTransitions
	}
	return s
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate reports every invalid field as one lifecycle.ErrInvalid.
func (s Settings) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%v: %w", err, lifecycle.ErrInvalid)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid settings (%s): %w", strings.Join(fields, ", "), lifecycle.ErrInvalid)
}
