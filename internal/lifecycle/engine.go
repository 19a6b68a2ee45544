package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/ids"
)

// Engine owns every rule coupling complaints, assignments and comments.
// Route handlers call it instead of touching the store for writes.
type Engine struct {
	store    Store
	settings Settings
	events   Publisher
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

func NewEngine(store Store, settings Settings, events Publisher, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		settings: settings,
		events:   events,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    ids.New,
	}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) policy() TransitionPolicy {
	if e.settings == nil {
		return PolicyPermissive
	}
	if p := e.settings.TransitionPolicy(); p.Valid() {
		return p
	}
	return PolicyPermissive
}

func (e *Engine) publish(ctx context.Context, events ...Event) {
	if e.events == nil {
		return
	}
	for _, event := range events {
		if err := e.events.Publish(ctx, event); err != nil {
			e.log.Warn().Err(err).
				Str("event", string(event.Type)).
				Str("complaint_id", event.ComplaintID).
				Msg("publish lifecycle event failed")
		}
	}
}
