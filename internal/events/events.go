// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"terratip_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Pipeline Events
// =============================================================================

// LeadCreated is published when a new lead enters the sheet, whether typed
// in manually or imported from a file.
type LeadCreated struct {
	BaseEvent
	Key        string `json:"key"`
	Name       string `json:"name"`
	Source     string `json:"source"`
	AssignedTo string `json:"assignedTo"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadUpdated is published after a successful lead update.
type LeadUpdated struct {
	BaseEvent
	Key       string `json:"key"`
	Status    string `json:"status"`
	UpdatedBy string `json:"updatedBy"`
}

func (e LeadUpdated) EventName() string { return "leads.lead.updated" }

// FollowUpScheduled is published when an update sets a follow-up date, so
// the notification module can book a reminder.
type FollowUpScheduled struct {
	BaseEvent
	Key        string `json:"key"`
	Name       string `json:"name"`
	AssignedTo string `json:"assignedTo"`
	FollowUpOn string `json:"followUpOn"`
}

func (e FollowUpScheduled) EventName() string { return "leads.followup.scheduled" }
