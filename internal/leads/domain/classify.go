package domain

import "time"

// Bucket is the working queue a lead lands in.
type Bucket string

const (
	// BucketAction holds leads that need attention today: new leads and
	// leads whose follow-up date is due or overdue.
	BucketAction Bucket = "action"
	// BucketFuture holds leads scheduled beyond today.
	BucketFuture Bucket = "future"
	// BucketRecycle holds soft-declined leads with no follow-up date.
	BucketRecycle Bucket = "recycle"
	// BucketClosed holds terminal leads and worked leads with nothing
	// scheduled.
	BucketClosed Bucket = "closed"
)

// Priority orders leads inside a bucket. Lower Rank sorts first.
type Priority struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
}

var (
	priorityOverdue   = Priority{Rank: 0, Label: "Overdue"}
	priorityDueToday  = Priority{Rank: 1, Label: "Due Today"}
	priorityNew       = Priority{Rank: 2, Label: "New"}
	priorityScheduled = Priority{Rank: 0, Label: "Scheduled"}
	priorityNone      = Priority{Rank: 0, Label: ""}
)

// Classify places a lead into exactly one bucket for the given business
// date. Rules apply first-match:
//
//  1. terminal status -> Closed, regardless of any follow-up date
//  2. soft-decline with no date -> Recycle; a date set on a declined lead
//     overrides the decline and re-enters the pipeline below
//  3. new status, or a date due today or earlier -> Action
//  4. a date after today -> Future
//  5. everything else -> Closed
//
// today is truncated to the date; time-of-day never affects the outcome.
func Classify(lead Lead, today time.Time) (Bucket, Priority) {
	if IsTerminal(lead.Status) {
		return BucketClosed, priorityNone
	}

	due, hasDue := lead.FollowUp()
	today = truncateToDate(today)

	if IsSoftDecline(lead.Status) && !hasDue {
		return BucketRecycle, priorityNone
	}

	if hasDue && !due.After(today) {
		if due.Before(today) {
			return BucketAction, priorityOverdue
		}
		return BucketAction, priorityDueToday
	}

	if IsNew(lead.Status) {
		return BucketAction, priorityNew
	}

	if hasDue {
		return BucketFuture, priorityScheduled
	}

	return BucketClosed, priorityNone
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
