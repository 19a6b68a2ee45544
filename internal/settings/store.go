package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

// Backend persists the settings document.
type Backend interface {
	// Load returns the stored document; found is false when none exists yet.
	Load(ctx context.Context) (body []byte, found bool, err error)
	Save(ctx context.Context, body []byte) error
}

var _ lifecycle.Settings = (*Store)(nil)

// Store holds the current settings in memory. Reads never touch the
// backend; Update persists before the new value becomes visible.
type Store struct {
	backend Backend
	log     zerolog.Logger

	mu      sync.RWMutex
	current Settings
	writeMu sync.Mutex
}

func NewStore(backend Backend, log zerolog.Logger) *Store {
	return &Store{backend: backend, log: log, current: Defaults()}
}

// Load reads the document from the backend. A missing document leaves the
// defaults in place; fields absent from an older document keep their
// default values.
func (s *Store) Load(ctx context.Context) error {
	body, found, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !found {
		s.log.Info().Msg("no stored settings, using defaults")
		return nil
	}

	loaded := Defaults()
	if err := json.Unmarshal(body, &loaded); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("stored settings: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Update merges p into the current settings, validates and persists the
// result, then makes it current.
func (s *Store) Update(ctx context.Context, p Patch) (Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := p.Apply(s.Get())
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	body, err := json.Marshal(next)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.backend.Save(ctx, body); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.log.Info().
		Bool("maintenance_mode", next.MaintenanceMode).
		Str("status_transitions", string(next.StatusTransitions)).
		Msg("settings updated")
	return next.clone(), nil
}

func (s *Store) DefaultPriority() models.Priority { return s.Get().DefaultPriority }

func (s *Store) DefaultCategory() models.Category { return s.Get().DefaultCategory }

func (s *Store) TransitionPolicy() lifecycle.TransitionPolicy { return s.Get().StatusTransitions }

func (s *Store) MaintenanceMode() bool { return s.Get().MaintenanceMode }

func (s *Store) EmailNotifications() bool { return s.Get().EmailNotifications }

// SessionTimeout is the idle period after which a session stops being
// accepted.
func (s *Store) SessionTimeout() time.Duration {
	return time.Duration(s.Get().SessionTimeout) * time.Minute
}
