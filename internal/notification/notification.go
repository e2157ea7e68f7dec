// Package notification turns follow-up schedules into reminder emails. The
// API process listens for FollowUpScheduled events and books delayed tasks;
// the worker process delivers them when they come due.
package notification

import (
	"context"
	"time"

	"terratip_backend/internal/auth"
	"terratip_backend/internal/email"
	"terratip_backend/internal/events"
	"terratip_backend/internal/leads/domain"
	"terratip_backend/internal/scheduler"
	"terratip_backend/platform/apperr"
	"terratip_backend/platform/logger"
)

// Service wires follow-up events to scheduled reminder emails.
type Service struct {
	sched        scheduler.ReminderScheduler
	sender       email.Sender
	directory    auth.Directory
	reminderHour int
	log          *logger.Logger
}

// New creates the notification service. sched may be nil when Redis is not
// configured; reminders are then skipped.
func New(sched scheduler.ReminderScheduler, sender email.Sender, directory auth.Directory, reminderHour int, log *logger.Logger) *Service {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if reminderHour < 0 || reminderHour > 23 {
		reminderHour = 9
	}
	return &Service{
		sched:        sched,
		sender:       sender,
		directory:    directory,
		reminderHour: reminderHour,
		log:          log,
	}
}

// Subscribe registers the event handlers on the bus.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.FollowUpScheduled{}.EventName(), events.HandlerFunc(s.onFollowUpScheduled))
}

func (s *Service) onFollowUpScheduled(ctx context.Context, event events.Event) error {
	e, ok := event.(events.FollowUpScheduled)
	if !ok {
		return nil
	}
	if s.sched == nil {
		return nil
	}

	runAt, err := s.reminderTime(e.FollowUpOn)
	if err != nil {
		s.log.Warn("skipping reminder for unparseable follow-up date",
			"key", e.Key, "followUpOn", e.FollowUpOn)
		return nil
	}
	if runAt.Before(time.Now()) {
		// Already due; the lead sits in the action queue, no mail needed.
		return nil
	}

	payload := scheduler.FollowUpReminderPayload{
		Key:        e.Key,
		LeadName:   e.Name,
		AssignedTo: e.AssignedTo,
		FollowUpOn: e.FollowUpOn,
	}
	if err := s.sched.ScheduleFollowUpReminder(ctx, payload, runAt); err != nil {
		s.log.Error("could not schedule follow-up reminder", "key", e.Key, "error", err)
		return err
	}

	s.log.Info("follow-up reminder scheduled", "key", e.Key, "runAt", runAt)
	return nil
}

// reminderTime places the reminder at the configured hour, local time, on
// the follow-up date.
func (s *Service) reminderTime(followUpOn string) (time.Time, error) {
	due, err := time.ParseInLocation(domain.FollowUpLayout, followUpOn, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(due.Year(), due.Month(), due.Day(), s.reminderHour, 0, 0, 0, time.Local), nil
}

// HandleFollowUpReminder delivers a due reminder. Implements
// scheduler.FollowUpHandler for the worker process.
func (s *Service) HandleFollowUpReminder(ctx context.Context, payload scheduler.FollowUpReminderPayload) error {
	if payload.AssignedTo == "" || payload.AssignedTo == domain.SharedAssignee {
		// Shared leads have no single owner to remind.
		return nil
	}

	toEmail, err := s.directory.EmailByAssignee(ctx, payload.AssignedTo)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Warn("no email for assignee, dropping reminder",
				"assignee", payload.AssignedTo, "key", payload.Key)
			return nil
		}
		return err
	}

	if err := s.sender.SendFollowUpReminder(ctx, toEmail, payload.AssignedTo, payload.LeadName, payload.FollowUpOn); err != nil {
		s.log.Error("reminder email failed", "key", payload.Key, "error", err)
		return err
	}

	s.log.Info("follow-up reminder sent", "key", payload.Key, "to", toEmail)
	return nil
}

// Compile-time check that Service implements the worker handler.
var _ scheduler.FollowUpHandler = (*Service)(nil)
