// Package repository adapts the generic record store to lead-typed
// operations.
package repository

import (
	"context"
	"strings"

	"terratip_backend/internal/leads/domain"
	"terratip_backend/internal/store"
)

// Repository reads and writes leads on one sheet of the record store.
type Repository struct {
	store store.Store
	sheet string
}

// New creates a lead repository bound to the given sheet.
func New(st store.Store, sheet string) *Repository {
	return &Repository{store: st, sheet: sheet}
}

// Sheet returns the sheet name this repository works on.
func (r *Repository) Sheet() string {
	return r.sheet
}

// EnsureSheet creates the lead sheet with the canonical header if it does
// not exist yet.
func (r *Repository) EnsureSheet(ctx context.Context) error {
	return r.store.CreateSheet(ctx, r.sheet, domain.Header)
}

// List returns every lead in sheet order.
func (r *Repository) List(ctx context.Context) ([]domain.Lead, error) {
	table, err := r.store.ReadAll(ctx, r.sheet)
	if err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, 0, len(table.Rows))
	for _, row := range table.Rows {
		leads = append(leads, domain.FromCells(row.Cells))
	}
	return leads, nil
}

// Keys returns the set of natural keys currently in the sheet. Leads whose
// phone cell holds no digits are skipped.
func (r *Repository) Keys(ctx context.Context) (map[string]struct{}, error) {
	leads, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(leads))
	for _, lead := range leads {
		if key := lead.Key(); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys, nil
}

// FindByKey returns the lead with the given natural key.
func (r *Repository) FindByKey(ctx context.Context, key string) (domain.Lead, error) {
	row, err := r.store.FindRowByKey(ctx, r.sheet, key)
	if err != nil {
		return domain.Lead{}, err
	}
	return domain.FromCells(row.Cells), nil
}

// Append adds a lead at the end of the sheet.
func (r *Repository) Append(ctx context.Context, lead domain.Lead) error {
	return r.store.AppendRow(ctx, r.sheet, lead.ToCells())
}

// DeleteByKeys removes the leads with the given natural keys. Positions are
// resolved in one snapshot read immediately before the delete, and the store
// deletes bottom-up so earlier removals cannot shift later targets.
func (r *Repository) DeleteByKeys(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key != "" {
			wanted[key] = struct{}{}
		}
	}

	table, err := r.store.ReadAll(ctx, r.sheet)
	if err != nil {
		return 0, err
	}

	var positions []int
	for _, row := range table.Rows {
		lead := domain.FromCells(row.Cells)
		if _, ok := wanted[lead.Key()]; ok {
			positions = append(positions, row.Position)
		}
	}
	if len(positions) == 0 {
		return 0, nil
	}

	if err := r.store.DeleteRows(ctx, r.sheet, positions); err != nil {
		return 0, err
	}
	return len(positions), nil
}
