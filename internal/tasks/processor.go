package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Saman-dev12/civic/internal/events"
	"github.com/Saman-dev12/civic/internal/jobs"
	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
	"github.com/Saman-dev12/civic/internal/notify"
)

const stalePendingLimit = 50

type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	ListActiveByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type ComplaintLookup interface {
	Get(ctx context.Context, id string) (models.Complaint, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Complaint, error)
}

type AssignmentLookup interface {
	ListOverdue(ctx context.Context, now time.Time) ([]models.AssignmentDetail, error)
}

type SessionCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NotificationSettings reports whether outgoing mail is switched on.
type NotificationSettings interface {
	EmailNotifications() bool
}

type Dependencies struct {
	Users       UserLookup
	Complaints  ComplaintLookup
	Assignments AssignmentLookup
	Sessions    SessionCleaner
	Settings    NotificationSettings
	Mailer      notify.Mailer
}

type Processor struct {
	deps   Dependencies
	logger zerolog.Logger
	now    func() time.Time
}

func NewProcessor(deps Dependencies, logger zerolog.Logger) *Processor {
	return &Processor{
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, msg events.Message) error {
	switch msg.Type {
	case events.TaskOverdueSweep:
		return p.handleOverdueSweep(ctx)
	case events.TaskStalePendingSweep:
		return p.handleStalePendingSweep(ctx, msg)
	case events.TaskSessionCleanup:
		return p.handleSessionCleanup(ctx)
	case string(lifecycle.EventComplaintFiled),
		string(lifecycle.EventAssignmentCreated),
		string(lifecycle.EventAssignmentUpdated),
		string(lifecycle.EventComplaintStatusChange),
		string(lifecycle.EventCommentAdded):
		e, err := msg.DecodeEvent()
		if err != nil {
			p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable event")
			return nil
		}
		return p.handleEvent(ctx, e)
	default:
		p.logger.Warn().Str("type", msg.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleEvent(ctx context.Context, e lifecycle.Event) error {
	if !p.deps.Settings.EmailNotifications() {
		p.logger.Debug().Str("type", string(e.Type)).Msg("email notifications disabled")
		return nil
	}

	complaint, err := p.deps.Complaints.Get(ctx, e.ComplaintID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			p.logger.Warn().Str("complaint_id", e.ComplaintID).Msg("event for unknown complaint")
			return nil
		}
		return fmt.Errorf("load complaint: %w", err)
	}

	switch e.Type {
	case lifecycle.EventComplaintFiled:
		return p.mailUser(ctx, complaint.CitizenID,
			fmt.Sprintf("Complaint received: %s", complaint.Title),
			fmt.Sprintf("Your complaint %q has been registered with reference %s.\nWe will let you know when an officer picks it up.", complaint.Title, complaint.ID))

	case lifecycle.EventAssignmentCreated:
		if err := p.mailUser(ctx, e.OfficerID,
			fmt.Sprintf("New assignment: %s", complaint.Title),
			fmt.Sprintf("You have been assigned complaint %s (%s, %s priority).\nLocation: %s", complaint.ID, complaint.Category, complaint.Priority, complaint.Location)); err != nil {
			return err
		}
		return p.mailUser(ctx, complaint.CitizenID,
			fmt.Sprintf("Complaint assigned: %s", complaint.Title),
			fmt.Sprintf("Your complaint %q has been assigned to an officer.", complaint.Title))

	case lifecycle.EventAssignmentUpdated, lifecycle.EventComplaintStatusChange:
		return p.mailUser(ctx, complaint.CitizenID,
			fmt.Sprintf("Complaint update: %s", complaint.Title),
			fmt.Sprintf("Your complaint %q is now %s.", complaint.Title, humanize(string(complaint.Status))))

	case lifecycle.EventCommentAdded:
		if e.ActorID == complaint.CitizenID {
			return nil
		}
		return p.mailUser(ctx, complaint.CitizenID,
			fmt.Sprintf("New comment on: %s", complaint.Title),
			fmt.Sprintf("A new comment was posted on your complaint %q.", complaint.Title))
	}
	return nil
}

// mailUser sends to an active user. Unknown or inactive recipients are
// skipped.
func (p *Processor) mailUser(ctx context.Context, userID, subject, body string) error {
	if userID == "" {
		return nil
	}
	user, err := p.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			p.logger.Warn().Str("user_id", userID).Msg("notification recipient not found")
			return nil
		}
		return fmt.Errorf("load recipient: %w", err)
	}
	if !user.IsActive || user.Email == "" {
		return nil
	}
	return p.deps.Mailer.Send(ctx, user.Email, subject, body)
}

// handleOverdueSweep reminds officers of active assignments past their due
// date. Individual mail failures are logged and do not fail the sweep.
func (p *Processor) handleOverdueSweep(ctx context.Context) error {
	overdue, err := p.deps.Assignments.ListOverdue(ctx, p.now())
	if err != nil {
		return fmt.Errorf("list overdue assignments: %w", err)
	}
	p.logger.Info().Int("count", len(overdue)).Msg("overdue sweep")
	if len(overdue) == 0 || !p.deps.Settings.EmailNotifications() {
		return nil
	}

	for _, a := range overdue {
		due := ""
		if a.DueDate != nil {
			due = a.DueDate.Format("2006-01-02")
		}
		err := p.mailUser(ctx, a.OfficerID,
			fmt.Sprintf("Overdue: %s", a.ComplaintTitle),
			fmt.Sprintf("Assignment %s for complaint %q was due on %s and is still %s.", a.ID, a.ComplaintTitle, due, humanize(string(a.Status))))
		if err != nil {
			p.logger.Error().Err(err).Str("assignment_id", a.ID).Msg("overdue reminder failed")
		}
	}
	return nil
}

// handleStalePendingSweep sends admins a digest of complaints still pending
// after the configured age.
func (p *Processor) handleStalePendingSweep(ctx context.Context, msg events.Message) error {
	var payload jobs.SweepPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("invalid sweep payload")
		}
	}
	if payload.MaxAge <= 0 {
		payload.MaxAge = 72 * time.Hour
	}

	cutoff := p.now().Add(-payload.MaxAge)
	stale, err := p.deps.Complaints.ListStalePending(ctx, cutoff, stalePendingLimit)
	if err != nil {
		return fmt.Errorf("list stale complaints: %w", err)
	}
	p.logger.Info().Int("count", len(stale)).Dur("max_age", payload.MaxAge).Msg("stale pending sweep")
	if len(stale) == 0 || !p.deps.Settings.EmailNotifications() {
		return nil
	}

	admins, err := p.deps.Users.ListActiveByRole(ctx, models.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d complaint(s) have been pending for more than %s:\n\n", len(stale), payload.MaxAge)
	for _, c := range stale {
		fmt.Fprintf(&body, "- %s %q (%s, filed %s)\n", c.ID, c.Title, c.Category, c.CreatedAt.Format("2006-01-02"))
	}
	subject := fmt.Sprintf("%d complaints awaiting assignment", len(stale))

	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		if err := p.deps.Mailer.Send(ctx, admin.Email, subject, body.String()); err != nil {
			p.logger.Error().Err(err).Str("admin_id", admin.ID).Msg("stale digest failed")
		}
	}
	return nil
}

func (p *Processor) handleSessionCleanup(ctx context.Context) error {
	removed, err := p.deps.Sessions.DeleteExpired(ctx, p.now())
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	p.logger.Info().Int64("removed", removed).Msg("session cleanup")
	return nil
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
