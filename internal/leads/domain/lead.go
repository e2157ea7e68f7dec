// Package domain holds the lead pipeline's core types and the pure
// classification rules that place each lead into a working queue.
package domain

import (
	"strconv"
	"strings"
	"time"

	"terratip_backend/platform/phone"
)

// Canonical sheet column names. The record store addresses cells by these
// header labels, so renaming one is a data migration.
const (
	ColID            = "ID"
	ColCreatedAt     = "Created At"
	ColName          = "Client Name"
	ColPhone         = "Phone"
	ColSource        = "Source"
	ColReferredBy    = "Referred By"
	ColAssignedTo    = "Assigned To"
	ColStatus        = "Status"
	ColLastContacted = "Last Contacted"
	ColNotes         = "Notes"
	ColFollowUp      = "Follow Up Date"
	ColTag           = "Tag"
	ColContactCount  = "Contact Count"
)

// Header is the canonical column order for a lead sheet.
var Header = []string{
	ColID, ColCreatedAt, ColName, ColPhone, ColSource, ColReferredBy,
	ColAssignedTo, ColStatus, ColLastContacted, ColNotes, ColFollowUp,
	ColTag, ColContactCount,
}

// FollowUpLayout is the date-only format follow-up dates are stored in.
const FollowUpLayout = "2006-01-02"

// Lead is one row of the lead sheet. All cells are stored as free text;
// typed accessors parse on demand and treat malformed values as absent.
type Lead struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"createdAt"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Source        string `json:"source"`
	ReferredBy    string `json:"referredBy,omitempty"`
	AssignedTo    string `json:"assignedTo"`
	Status        string `json:"status"`
	LastContacted string `json:"lastContacted,omitempty"`
	Notes         string `json:"notes,omitempty"`
	FollowUpDate  string `json:"followUpDate,omitempty"`
	Tag           string `json:"tag,omitempty"`
	ContactCount  string `json:"contactCount,omitempty"`
}

// FromCells builds a Lead from a row's named cells.
func FromCells(cells map[string]string) Lead {
	return Lead{
		ID:            cells[ColID],
		CreatedAt:     cells[ColCreatedAt],
		Name:          cells[ColName],
		Phone:         cells[ColPhone],
		Source:        cells[ColSource],
		ReferredBy:    cells[ColReferredBy],
		AssignedTo:    cells[ColAssignedTo],
		Status:        cells[ColStatus],
		LastContacted: cells[ColLastContacted],
		Notes:         cells[ColNotes],
		FollowUpDate:  cells[ColFollowUp],
		Tag:           cells[ColTag],
		ContactCount:  cells[ColContactCount],
	}
}

// ToCells renders the lead as named cells for the record store.
func (l Lead) ToCells() map[string]string {
	return map[string]string{
		ColID:            l.ID,
		ColCreatedAt:     l.CreatedAt,
		ColName:          l.Name,
		ColPhone:         l.Phone,
		ColSource:        l.Source,
		ColReferredBy:    l.ReferredBy,
		ColAssignedTo:    l.AssignedTo,
		ColStatus:        l.Status,
		ColLastContacted: l.LastContacted,
		ColNotes:         l.Notes,
		ColFollowUp:      l.FollowUpDate,
		ColTag:           l.Tag,
		ColContactCount:  l.ContactCount,
	}
}

// Key returns the lead's natural key: the last 10 digits of its phone
// number. Empty when the phone cell has no digits.
func (l Lead) Key() string {
	return phone.NaturalKey(l.Phone)
}

// FollowUp parses the follow-up date cell. A blank or malformed cell
// returns ok=false, which classification treats as "no date set".
func (l Lead) FollowUp() (time.Time, bool) {
	raw := strings.TrimSpace(l.FollowUpDate)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(FollowUpLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Contacts parses the contact counter cell. Blank or malformed counts as 0.
func (l Lead) Contacts() int {
	n, err := strconv.Atoi(strings.TrimSpace(l.ContactCount))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
