// Package resolver applies lead updates against the shared record store.
//
// Row positions in the store shift whenever earlier rows are deleted, so an
// update never trusts a position captured during a read. It re-resolves the
// row by the lead's natural key immediately before writing, then applies
// every changed cell as one atomic batch.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"terratip_backend/internal/leads/domain"
	"terratip_backend/internal/store"
	"terratip_backend/platform/apperr"
	"terratip_backend/platform/logger"
)

const noteStampLayout = "02 Jan"

// Update describes the fields a caller wants to change. Nil pointers leave
// the cell untouched.
type Update struct {
	Status       *string
	Note         *string
	FollowUpDate *string
	AssignedTo   *string
}

// Resolver resolves natural keys to live row positions and writes updates.
type Resolver struct {
	store      store.Store
	sheet      string
	now        func() time.Time
	retryDelay time.Duration
	log        *logger.Logger
}

// New creates a resolver for the given sheet.
func New(st store.Store, sheet string, log *logger.Logger) *Resolver {
	return &Resolver{
		store:      st,
		sheet:      sheet,
		now:        time.Now,
		retryDelay: 500 * time.Millisecond,
		log:        log,
	}
}

// WithClock overrides the resolver's clock. Used by tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// WithRetryDelay overrides the delay before the single transient retry.
func (r *Resolver) WithRetryDelay(d time.Duration) *Resolver {
	r.retryDelay = d
	return r
}

// Apply updates the lead identified by key. On a transient store failure the
// whole resolve-and-write sequence is retried exactly once after a short
// delay; all other failures surface immediately.
func (r *Resolver) Apply(ctx context.Context, key string, update Update) (domain.Lead, error) {
	// A lead's status cell is never blank; clearing it would strand the
	// lead outside every queue.
	if update.Status != nil && strings.TrimSpace(*update.Status) == "" {
		return domain.Lead{}, apperr.Validation("status cannot be empty")
	}

	lead, err := r.apply(ctx, key, update)
	if err == nil {
		return lead, nil
	}
	if !apperr.Is(err, apperr.KindTransient) {
		return domain.Lead{}, err
	}

	r.log.Warn("transient store failure, retrying update once", "key", key, "error", err)
	select {
	case <-time.After(r.retryDelay):
	case <-ctx.Done():
		return domain.Lead{}, apperr.Wrap(apperr.KindTransient, "update cancelled during retry", ctx.Err())
	}

	return r.apply(ctx, key, update)
}

func (r *Resolver) apply(ctx context.Context, key string, update Update) (domain.Lead, error) {
	row, err := r.store.FindRowByKey(ctx, r.sheet, key)
	if err != nil {
		return domain.Lead{}, err
	}

	lead := domain.FromCells(row.Cells)
	now := r.now()

	updates := buildCellUpdates(lead, update, now)
	if err := r.store.BatchUpdateCells(ctx, r.sheet, row.Position, updates); err != nil {
		return domain.Lead{}, err
	}

	for _, u := range updates {
		row.Cells[u.Column] = u.Value
	}
	return domain.FromCells(row.Cells), nil
}

// buildCellUpdates turns an Update into the cell batch. Every write also
// stamps Last Contacted and bumps the contact counter, so the activity trail
// stays consistent even when only a note changed.
func buildCellUpdates(lead domain.Lead, update Update, now time.Time) []store.CellUpdate {
	var updates []store.CellUpdate

	if update.Status != nil {
		updates = append(updates, store.CellUpdate{Column: domain.ColStatus, Value: *update.Status})
	}
	if update.FollowUpDate != nil {
		updates = append(updates, store.CellUpdate{Column: domain.ColFollowUp, Value: *update.FollowUpDate})
	}
	if update.AssignedTo != nil {
		updates = append(updates, store.CellUpdate{Column: domain.ColAssignedTo, Value: *update.AssignedTo})
	}
	if update.Note != nil && *update.Note != "" {
		updates = append(updates, store.CellUpdate{
			Column: domain.ColNotes,
			Value:  prependNote(lead.Notes, *update.Note, now),
		})
	}

	updates = append(updates,
		store.CellUpdate{Column: domain.ColLastContacted, Value: now.Format(time.RFC3339)},
		store.CellUpdate{Column: domain.ColContactCount, Value: strconv.Itoa(lead.Contacts() + 1)},
	)

	return updates
}

// prependNote puts the newest note on top with a day-month stamp, keeping
// the existing history below it.
func prependNote(existing, note string, now time.Time) string {
	stamped := fmt.Sprintf("%s: %s", now.Format(noteStampLayout), note)
	if existing == "" {
		return stamped
	}
	return stamped + "\n" + existing
}
