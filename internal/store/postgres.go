package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"terratip_backend/platform/apperr"
)

const rowNotFoundMessage = "row not found"

// Postgres implements Store on top of two tables: sheets (name + header) and
// sheet_rows (sheet, dense 1-based row_num, jsonb cells). The key column is
// normalized with keyFn before comparison so that formatting variants of the
// same phone number resolve to the same row.
type Postgres struct {
	pool      *pgxpool.Pool
	keyColumn string
	keyFn     func(string) string
}

// NewPostgres creates a Postgres-backed row store. keyFn may be nil, in
// which case key cells are compared verbatim.
func NewPostgres(pool *pgxpool.Pool, keyColumn string, keyFn func(string) string) *Postgres {
	if keyFn == nil {
		keyFn = func(s string) string { return s }
	}
	return &Postgres{pool: pool, keyColumn: keyColumn, keyFn: keyFn}
}

// Compile-time check that Postgres implements Store.
var _ Store = (*Postgres)(nil)

// ReadAll returns the full sheet snapshot in position order.
func (p *Postgres) ReadAll(ctx context.Context, sheet string) (Table, error) {
	var header []string
	err := p.pool.QueryRow(ctx, `SELECT header FROM sheets WHERE name = $1`, sheet).Scan(&header)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Table{}, apperr.NotFound("sheet not found")
		}
		return Table{}, mapStoreError("read sheet header", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT row_num, cells
		FROM sheet_rows
		WHERE sheet = $1
		ORDER BY row_num ASC`, sheet)
	if err != nil {
		return Table{}, mapStoreError("read all rows", err)
	}
	defer rows.Close()

	table := Table{Header: header}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return Table{}, err
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, mapStoreError("iterate rows", err)
	}

	return table, nil
}

// FindRowByKey locates the row whose normalized key cell matches key. The
// scan always runs against current store state.
func (p *Postgres) FindRowByKey(ctx context.Context, sheet, key string) (Row, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT row_num, cells
		FROM sheet_rows
		WHERE sheet = $1
		ORDER BY row_num ASC`, sheet)
	if err != nil {
		return Row{}, mapStoreError("find row by key", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return Row{}, err
		}
		if p.keyFn(row.Cells[p.keyColumn]) == key {
			return row, nil
		}
	}
	if err := rows.Err(); err != nil {
		return Row{}, mapStoreError("find row by key", err)
	}

	return Row{}, apperr.NotFound(rowNotFoundMessage)
}

// BatchUpdateCells merges all updates into the row's cells in one statement,
// so a multi-cell update is atomic.
func (p *Postgres) BatchUpdateCells(ctx context.Context, sheet string, position int, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	patch := make(map[string]string, len(updates))
	for _, update := range updates {
		patch[update.Column] = update.Value
	}
	encoded, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode cell patch: %w", err)
	}

	result, err := p.pool.Exec(ctx, `
		UPDATE sheet_rows
		SET cells = cells || $3::jsonb
		WHERE sheet = $1 AND row_num = $2`, sheet, position, encoded)
	if err != nil {
		return mapStoreError("batch update cells", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(rowNotFoundMessage)
	}

	return nil
}

// AppendRow inserts a row after the current last row. row_num is not
// unique (deletes renumber in place), so the next position is computed
// under a per-sheet advisory lock to keep concurrent appends from landing
// on the same number.
func (p *Postgres) AppendRow(ctx context.Context, sheet string, cells map[string]string) error {
	encoded, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode row cells: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapStoreError("append row", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sheet); err != nil {
		return mapStoreError("append row", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sheet_rows (sheet, row_num, cells)
		SELECT $1, COALESCE(MAX(row_num), 0) + 1, $2::jsonb
		FROM sheet_rows
		WHERE sheet = $1`, sheet, encoded); err != nil {
		return mapStoreError("append row", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapStoreError("append row", err)
	}

	return nil
}

// DeleteRows removes the given positions and renumbers the remaining rows so
// positions stay dense. Runs in one transaction.
func (p *Postgres) DeleteRows(ctx context.Context, sheet string, positions []int) error {
	if len(positions) == 0 {
		return nil
	}

	sorted := append([]int(nil), positions...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapStoreError("delete rows", err)
	}
	defer tx.Rollback(ctx)

	// Same per-sheet lock as AppendRow: renumbering must not interleave
	// with an append computing MAX(row_num).
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sheet); err != nil {
		return mapStoreError("delete rows", err)
	}

	for _, position := range sorted {
		if _, err := tx.Exec(ctx, `
			DELETE FROM sheet_rows
			WHERE sheet = $1 AND row_num = $2`, sheet, position); err != nil {
			return mapStoreError("delete rows", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sheet_rows sr
		SET row_num = seq.rn
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY row_num) AS rn
			FROM sheet_rows
			WHERE sheet = $1
		) seq
		WHERE sr.id = seq.id AND sr.row_num <> seq.rn`, sheet); err != nil {
		return mapStoreError("resequence rows", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapStoreError("delete rows", err)
	}

	return nil
}

// ListSheets returns all sheet names.
func (p *Postgres) ListSheets(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT name FROM sheets ORDER BY name ASC`)
	if err != nil {
		return nil, mapStoreError("list sheets", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sheet name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("list sheets", err)
	}

	return names, nil
}

// CreateSheet creates an empty sheet. Creating an existing sheet is a no-op.
func (p *Postgres) CreateSheet(ctx context.Context, sheet string, header []string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO sheets (name, header)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`, sheet, header)
	if err != nil {
		return mapStoreError("create sheet", err)
	}
	return nil
}

func scanRow(rows pgx.Rows) (Row, error) {
	var position int
	var raw []byte
	if err := rows.Scan(&position, &raw); err != nil {
		return Row{}, fmt.Errorf("scan row: %w", err)
	}

	cells := make(map[string]string)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cells); err != nil {
			return Row{}, fmt.Errorf("decode row cells: %w", err)
		}
	}

	return Row{Position: position, Cells: cells}, nil
}

// mapStoreError classifies driver errors into the store taxonomy: connection
// failures are fatal (never retried), resource and serialization failures are
// transient (retried once by the update resolver).
func mapStoreError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "28"):
			return apperr.Wrap(apperr.KindUnavailable, "record store unreachable", err).WithOp(op)
		case strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == "40001", pgErr.Code == "40P01",
			pgErr.Code == "55P03", pgErr.Code == "57014":
			return apperr.Wrap(apperr.KindTransient, "record store busy", err).WithOp(op)
		}
		return apperr.Wrap(apperr.KindInternal, "record store error", err).WithOp(op)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Wrap(apperr.KindUnavailable, "record store unreachable", err).WithOp(op)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTransient, "record store timed out", err).WithOp(op)
	}

	return apperr.Wrap(apperr.KindInternal, "record store error", err).WithOp(op)
}
