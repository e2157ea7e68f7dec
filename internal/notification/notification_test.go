package notification

import (
	"context"
	"testing"
	"time"

	"terratip_backend/internal/events"
	"terratip_backend/internal/scheduler"
	"terratip_backend/platform/apperr"
	"terratip_backend/platform/logger"
)

type fakeScheduler struct {
	payloads []scheduler.FollowUpReminderPayload
	runAts   []time.Time
}

func (f *fakeScheduler) ScheduleFollowUpReminder(_ context.Context, payload scheduler.FollowUpReminderPayload, runAt time.Time) error {
	f.payloads = append(f.payloads, payload)
	f.runAts = append(f.runAts, runAt)
	return nil
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendFollowUpReminder(_ context.Context, toEmail, _, _, _ string) error {
	f.sent = append(f.sent, toEmail)
	return nil
}

type fakeDirectory struct {
	emails map[string]string
}

func (f fakeDirectory) ListAgentNames(context.Context) ([]string, error) { return nil, nil }

func (f fakeDirectory) EmailByAssignee(_ context.Context, assignee string) (string, error) {
	if addr, ok := f.emails[assignee]; ok {
		return addr, nil
	}
	return "", apperr.NotFound("user not found")
}

func TestFollowUpScheduledBooksReminder(t *testing.T) {
	sched := &fakeScheduler{}
	svc := New(sched, nil, fakeDirectory{}, 9, logger.New("development"))

	futureDate := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	err := svc.onFollowUpScheduled(context.Background(), events.FollowUpScheduled{
		BaseEvent:  events.NewBaseEvent(),
		Key:        "9876543210",
		Name:       "Asha",
		AssignedTo: "ravi",
		FollowUpOn: futureDate,
	})
	if err != nil {
		t.Fatalf("onFollowUpScheduled: %v", err)
	}

	if len(sched.payloads) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(sched.payloads))
	}
	if sched.runAts[0].Hour() != 9 {
		t.Fatalf("reminder hour = %d, want 9", sched.runAts[0].Hour())
	}
	if sched.payloads[0].Key != "9876543210" {
		t.Fatalf("payload key = %q", sched.payloads[0].Key)
	}
}

func TestPastFollowUpDoesNotBookReminder(t *testing.T) {
	sched := &fakeScheduler{}
	svc := New(sched, nil, fakeDirectory{}, 9, logger.New("development"))

	err := svc.onFollowUpScheduled(context.Background(), events.FollowUpScheduled{
		BaseEvent:  events.NewBaseEvent(),
		Key:        "9876543210",
		FollowUpOn: "2020-01-01",
	})
	if err != nil {
		t.Fatalf("onFollowUpScheduled: %v", err)
	}
	if len(sched.payloads) != 0 {
		t.Fatalf("past date should not schedule a reminder")
	}
}

func TestMalformedDateIsSkipped(t *testing.T) {
	sched := &fakeScheduler{}
	svc := New(sched, nil, fakeDirectory{}, 9, logger.New("development"))

	err := svc.onFollowUpScheduled(context.Background(), events.FollowUpScheduled{
		BaseEvent:  events.NewBaseEvent(),
		Key:        "9876543210",
		FollowUpOn: "next tuesday",
	})
	if err != nil {
		t.Fatalf("malformed date should be skipped, got %v", err)
	}
	if len(sched.payloads) != 0 {
		t.Fatalf("malformed date should not schedule a reminder")
	}
}

func TestHandleFollowUpReminderSendsEmail(t *testing.T) {
	sender := &fakeSender{}
	dir := fakeDirectory{emails: map[string]string{"ravi": "ravi@example.com"}}
	svc := New(nil, sender, dir, 9, logger.New("development"))

	err := svc.HandleFollowUpReminder(context.Background(), scheduler.FollowUpReminderPayload{
		Key:        "9876543210",
		LeadName:   "Asha",
		AssignedTo: "ravi",
		FollowUpOn: "2024-01-15",
	})
	if err != nil {
		t.Fatalf("HandleFollowUpReminder: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "ravi@example.com" {
		t.Fatalf("sent = %v", sender.sent)
	}
}

func TestHandleFollowUpReminderSharedLeadSkipped(t *testing.T) {
	sender := &fakeSender{}
	svc := New(nil, sender, fakeDirectory{}, 9, logger.New("development"))

	err := svc.HandleFollowUpReminder(context.Background(), scheduler.FollowUpReminderPayload{
		Key:        "9876543210",
		AssignedTo: "ALL",
	})
	if err != nil {
		t.Fatalf("HandleFollowUpReminder: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("shared leads must not trigger mail")
	}
}

func TestHandleFollowUpReminderUnknownAssigneeDropped(t *testing.T) {
	sender := &fakeSender{}
	svc := New(nil, sender, fakeDirectory{}, 9, logger.New("development"))

	err := svc.HandleFollowUpReminder(context.Background(), scheduler.FollowUpReminderPayload{
		Key:        "9876543210",
		AssignedTo: "ghost",
	})
	if err != nil {
		t.Fatalf("unknown assignee should be dropped, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("unknown assignee must not trigger mail")
	}
}
