package domain

import (
	"testing"
	"time"
)

var testToday = time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		followUp   string
		wantBucket Bucket
		wantLabel  string
	}{
		{"new lead no date", "New", "", BucketAction, "New"},
		{"hindi new alias", "Naya", "", BucketAction, "New"},
		{"overdue follow-up", "Call Done", "2024-01-08", BucketAction, "Overdue"},
		{"due today", "Call Done", "2024-01-10", BucketAction, "Due Today"},
		{"scheduled ahead", "Site Visit Scheduled", "2024-01-15", BucketFuture, "Scheduled"},
		{"lost without date", "Lost", "", BucketRecycle, ""},
		{"not interested without date", "Not Interested", "", BucketRecycle, ""},
		{"date overrides decline", "Lost", "2024-01-09", BucketAction, "Overdue"},
		{"declined but rescheduled ahead", "Not Interested", "2024-02-01", BucketFuture, "Scheduled"},
		{"sold is terminal", "Sold", "", BucketClosed, ""},
		{"terminal beats future date", "Sold", "2024-02-01", BucketClosed, ""},
		{"terminal beats overdue date", "Junk lead", "2024-01-01", BucketClosed, ""},
		{"messy terminal status", "sold - registry pending", "2024-01-05", BucketClosed, ""},
		{"worked lead nothing scheduled", "Call Done", "", BucketClosed, ""},
		{"malformed date treated as absent", "Call Done", "next tuesday", BucketClosed, ""},
		{"malformed date on new lead", "New", "tomorrow", BucketAction, "New"},
		{"new lead with future date stays actionable", "New", "2024-01-20", BucketAction, "New"},
		{"new lead with overdue date ranks overdue", "New", "2024-01-05", BucketAction, "Overdue"},
		{"compacted decline keyword", "NotInterested", "", BucketRecycle, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{Status: tt.status, FollowUpDate: tt.followUp}
			bucket, priority := Classify(lead, testToday)
			if bucket != tt.wantBucket {
				t.Fatalf("bucket = %q, want %q", bucket, tt.wantBucket)
			}
			if priority.Label != tt.wantLabel {
				t.Fatalf("label = %q, want %q", priority.Label, tt.wantLabel)
			}
		})
	}
}

func TestClassifyExactlyOneBucket(t *testing.T) {
	statuses := []string{"New", "Call Done", "Lost", "Sold", "Site Visit Scheduled", ""}
	dates := []string{"", "2024-01-05", "2024-01-10", "2024-01-20", "garbage"}

	for _, status := range statuses {
		for _, date := range dates {
			bucket, _ := Classify(Lead{Status: status, FollowUpDate: date}, testToday)
			switch bucket {
			case BucketAction, BucketFuture, BucketRecycle, BucketClosed:
			default:
				t.Fatalf("status %q date %q produced unknown bucket %q", status, date, bucket)
			}
		}
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	lead := Lead{Status: "Call Done", FollowUpDate: "2024-01-10"}

	morning := time.Date(2024, 1, 10, 0, 0, 1, 0, time.UTC)
	night := time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC)

	mb, mp := Classify(lead, morning)
	nb, np := Classify(lead, night)
	if mb != nb || mp != np {
		t.Fatalf("classification changed with time of day: %v/%v vs %v/%v", mb, mp, nb, np)
	}
}

func TestFollowUpParsing(t *testing.T) {
	if _, ok := (Lead{FollowUpDate: "2024-03-01"}).FollowUp(); !ok {
		t.Fatalf("valid date should parse")
	}
	if _, ok := (Lead{FollowUpDate: " "}).FollowUp(); ok {
		t.Fatalf("blank date should be absent")
	}
	if _, ok := (Lead{FollowUpDate: "01/03/2024"}).FollowUp(); ok {
		t.Fatalf("wrong layout should be absent")
	}
}

func TestContacts(t *testing.T) {
	if got := (Lead{ContactCount: "3"}).Contacts(); got != 3 {
		t.Fatalf("Contacts() = %d, want 3", got)
	}
	if got := (Lead{ContactCount: "many"}).Contacts(); got != 0 {
		t.Fatalf("malformed count should read as 0, got %d", got)
	}
	if got := (Lead{}).Contacts(); got != 0 {
		t.Fatalf("blank count should read as 0, got %d", got)
	}
}
