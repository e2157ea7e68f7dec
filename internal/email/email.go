// Package email delivers reminder mail to agents.
package email

import "context"

// Sender sends pipeline emails. Implementations must be safe for concurrent use.
type Sender interface {
	// SendFollowUpReminder tells an agent a lead is due for contact today.
	SendFollowUpReminder(ctx context.Context, toEmail, agentName, leadName, followUpDate string) error
}

// NoopSender is used when SMTP is not configured; reminders are dropped.
type NoopSender struct{}

func (NoopSender) SendFollowUpReminder(context.Context, string, string, string, string) error {
	return nil
}
