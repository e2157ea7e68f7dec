package transport

import "terratip_backend/internal/leads/domain"

// Request DTOs

type CreateLeadRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	Phone        string `json:"phone" validate:"required,min=10,max=20"`
	Source       string `json:"source,omitempty" validate:"max=100"`
	ReferredBy   string `json:"referredBy,omitempty" validate:"max=200"`
	AssignedTo   string `json:"assignedTo,omitempty" validate:"max=100"`
	Status       string `json:"status,omitempty" validate:"max=100"`
	Notes        string `json:"notes,omitempty" validate:"max=2000"`
	FollowUpDate string `json:"followUpDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Tag          string `json:"tag,omitempty" validate:"max=100"`
}

// UpdateLeadRequest changes only the fields that are present. An empty
// string clears the cell; a nil pointer leaves it alone.
type UpdateLeadRequest struct {
	Status       *string `json:"status,omitempty" validate:"omitempty,max=100"`
	Note         *string `json:"note,omitempty" validate:"omitempty,max=2000"`
	FollowUpDate *string `json:"followUpDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AssignedTo   *string `json:"assignedTo,omitempty" validate:"omitempty,max=100"`
}

type DeleteLeadsRequest struct {
	Keys []string `json:"keys" validate:"required,min=1,max=500,dive,min=1"`
}

// Response DTOs

// LeadView is a lead decorated with its natural key, queue placement and
// ready-to-use WhatsApp link.
type LeadView struct {
	domain.Lead
	Key          string          `json:"key"`
	Bucket       domain.Bucket   `json:"bucket"`
	Priority     domain.Priority `json:"priority"`
	WhatsAppLink string          `json:"whatsappLink,omitempty"`
}

// QueuesResponse groups the visible leads into the four working queues.
type QueuesResponse struct {
	Action  []LeadView `json:"action"`
	Future  []LeadView `json:"future"`
	Recycle []LeadView `json:"recycle"`
	Closed  []LeadView `json:"closed"`
}

// ImportReport summarizes one file import.
type ImportReport struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Malformed  int `json:"malformed"`
}

type DeleteLeadsResponse struct {
	Deleted int `json:"deleted"`
}
