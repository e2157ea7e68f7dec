// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// NaturalKeyLength is the number of trailing digits that form a lead's
// natural key. Country-code prefixes and spreadsheet punctuation artifacts
// are absorbed by keeping only the last ten digits.
const NaturalKeyLength = 10

// NaturalKey normalizes a phone number into the digits-only key used to
// identify a lead. All non-digit characters are stripped and only the last
// ten digits are kept. Inputs with fewer digits are returned as-is (callers
// treat short keys as malformed).
func NaturalKey(input string) string {
	var b strings.Builder
	for _, r := range input {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > NaturalKeyLength {
		return digits[len(digits)-NaturalKeyLength:]
	}
	return digits
}

// NormalizeE164 formats a phone number to E.164 for display and chat links.
// If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
