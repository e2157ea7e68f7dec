// Package store provides the record store adapter: a sheet-like row store
// with header-named cells and positional rows. Rows shift when earlier rows
// are deleted, exactly like a spreadsheet, which is why writers must resolve
// a row's position by natural key at write time rather than reusing a
// position captured during an earlier read.
package store

import "context"

// CellUpdate sets a single named cell on a row.
type CellUpdate struct {
	Column string
	Value  string
}

// Row is a positioned row with header-named cells. Positions are 1-based
// and dense within a sheet.
type Row struct {
	Position int
	Cells    map[string]string
}

// Table is a full sheet snapshot.
type Table struct {
	Header []string
	Rows   []Row
}

// Store is the contract against the shared tabular record store. All calls
// are blocking remote calls. Implementations return apperr-typed errors:
// KindNotFound for absent keys/rows, KindTransient for retryable failures,
// KindUnavailable when the store is unreachable.
type Store interface {
	// ReadAll returns the full sheet snapshot in position order.
	ReadAll(ctx context.Context, sheet string) (Table, error)

	// FindRowByKey locates the row whose key column, normalized, matches key.
	// The lookup reflects the store's current state, not any cached snapshot.
	FindRowByKey(ctx context.Context, sheet, key string) (Row, error)

	// BatchUpdateCells applies all updates to one row as a single atomic
	// write. Either every cell is written or none are.
	BatchUpdateCells(ctx context.Context, sheet string, position int, updates []CellUpdate) error

	// AppendRow adds a row after the current last row.
	AppendRow(ctx context.Context, sheet string, cells map[string]string) error

	// DeleteRows removes the rows at the given positions and resequences the
	// remaining rows so positions stay dense.
	DeleteRows(ctx context.Context, sheet string, positions []int) error

	// ListSheets returns the names of all sheets.
	ListSheets(ctx context.Context) ([]string, error)

	// CreateSheet creates an empty sheet with the given header.
	CreateSheet(ctx context.Context, sheet string, header []string) error
}
