package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/config"
	"github.com/Saman-dev12/civic/internal/events"
)

// Enqueuer puts a task on the worker stream.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) error
}

// SweepPayload is attached to every scheduled task.
type SweepPayload struct {
	ScheduledAt time.Time     `json:"scheduledAt"`
	MaxAge      time.Duration `json:"maxAge,omitempty"`
}

type Scheduler struct {
	cron  *cron.Cron
	queue Enqueuer
	cfg   config.JobsConfig
	log   zerolog.Logger
	now   func() time.Time
}

func NewScheduler(queue Enqueuer, cfg config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: queue,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || !s.cfg.Enabled {
		return nil
	}

	schedule := []struct {
		spec string
		task string
	}{
		{s.cfg.OverdueSchedule, events.TaskOverdueSweep},
		{s.cfg.StalePendingSched, events.TaskStalePendingSweep},
		{"0 15 0 * * *", events.TaskSessionCleanup},
	}
	for _, entry := range schedule {
		task := entry.task
		if _, err := s.cron.AddFunc(entry.spec, func() { s.enqueue(task) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", task, entry.spec, err)
		}
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	return nil
}

// Stop halts the schedule and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) enqueue(task string) {
	payload := SweepPayload{ScheduledAt: s.now().UTC()}
	if task == events.TaskStalePendingSweep {
		payload.MaxAge = s.cfg.StalePendingAge
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.queue.Enqueue(ctx, task, payload); err != nil {
		s.log.Error().Err(err).Str("task", task).Msg("enqueue task failed")
		return
	}
	s.log.Debug().Str("task", task).Msg("task enqueued")
}
