package store

import (
	"context"
	"sort"
	"sync"

	"terratip_backend/platform/apperr"
)

// Memory is an in-memory Store used by tests. It mirrors the positional
// semantics of the Postgres implementation, including row shifts after
// deletes.
type Memory struct {
	mu        sync.Mutex
	keyColumn string
	keyFn     func(string) string
	headers   map[string][]string
	rows      map[string][]map[string]string

	// FailNext, when non-nil, is returned by the next mutating call and then
	// cleared. Tests use it to simulate transient store failures.
	FailNext error
}

// NewMemory creates an empty in-memory store.
func NewMemory(keyColumn string, keyFn func(string) string) *Memory {
	if keyFn == nil {
		keyFn = func(s string) string { return s }
	}
	return &Memory{
		keyColumn: keyColumn,
		keyFn:     keyFn,
		headers:   make(map[string][]string),
		rows:      make(map[string][]map[string]string),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *Memory) ReadAll(_ context.Context, sheet string) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	header, ok := m.headers[sheet]
	if !ok {
		return Table{}, apperr.NotFound("sheet not found")
	}

	table := Table{Header: append([]string(nil), header...)}
	for i, cells := range m.rows[sheet] {
		table.Rows = append(table.Rows, Row{Position: i + 1, Cells: copyCells(cells)})
	}
	return table, nil
}

func (m *Memory) FindRowByKey(_ context.Context, sheet, key string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, cells := range m.rows[sheet] {
		if m.keyFn(cells[m.keyColumn]) == key {
			return Row{Position: i + 1, Cells: copyCells(cells)}, nil
		}
	}
	return Row{}, apperr.NotFound(rowNotFoundMessage)
}

func (m *Memory) BatchUpdateCells(_ context.Context, sheet string, position int, updates []CellUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}

	rows := m.rows[sheet]
	if position < 1 || position > len(rows) {
		return apperr.NotFound(rowNotFoundMessage)
	}
	for _, update := range updates {
		rows[position-1][update.Column] = update.Value
	}
	return nil
}

func (m *Memory) AppendRow(_ context.Context, sheet string, cells map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}

	m.rows[sheet] = append(m.rows[sheet], copyCells(cells))
	return nil
}

func (m *Memory) DeleteRows(_ context.Context, sheet string, positions []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}

	sorted := append([]int(nil), positions...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	rows := m.rows[sheet]
	for _, position := range sorted {
		if position < 1 || position > len(rows) {
			continue
		}
		rows = append(rows[:position-1], rows[position:]...)
	}
	m.rows[sheet] = rows
	return nil
}

func (m *Memory) ListSheets(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.headers))
	for name := range m.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) CreateSheet(_ context.Context, sheet string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.headers[sheet]; ok {
		return nil
	}
	m.headers[sheet] = append([]string(nil), header...)
	return nil
}

func copyCells(cells map[string]string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out
}
