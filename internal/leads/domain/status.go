package domain

import "strings"

// Status interpretation is keyword-based rather than enum-based: statuses
// are typed by hand in the field, so "Sold!", "sold - registry pending" and
// "SOLD" must all read as terminal. Matching is case-insensitive containment
// over a compacted form with spaces removed, so "not  interested" and
// "NotInterested" both hit the soft-decline keywords.

var terminalKeywords = []string{"sold", "closed", "junk", "invalid", "broker"}

var softDeclineKeywords = []string{"lost", "notinterested"}

var newKeywords = []string{"new", "naya"}

func compactStatus(status string) string {
	lowered := strings.ToLower(status)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, lowered)
}

func containsAny(status string, keywords []string) bool {
	compact := compactStatus(status)
	for _, kw := range keywords {
		if strings.Contains(compact, kw) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status marks the lead as permanently done
// (sold, junk, broker, and similar). Terminal always wins over any follow-up
// date.
func IsTerminal(status string) bool {
	return containsAny(status, terminalKeywords)
}

// IsSoftDecline reports whether the status is a recoverable decline (lost,
// not interested). Such leads are recyclable unless a follow-up date pulls
// them back into the active pipeline.
func IsSoftDecline(status string) bool {
	return containsAny(status, softDeclineKeywords)
}

// IsNew reports whether the status marks a lead that has never been worked.
func IsNew(status string) bool {
	return containsAny(status, newKeywords)
}
