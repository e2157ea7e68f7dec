package store

import (
	"context"
	"strconv"
	"sync"
	"testing"
)

func digitsKey(s string) string { return s }

func TestMemoryConcurrentAppendsKeepPositionsUnique(t *testing.T) {
	mem := NewMemory("Phone", digitsKey)
	if err := mem.CreateSheet(context.Background(), "leads", []string{"Phone"}); err != nil {
		t.Fatalf("CreateSheet: %v", err)
	}

	const appends = 50
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cells := map[string]string{"Phone": strconv.Itoa(9000000000 + n)}
			if err := mem.AppendRow(context.Background(), "leads", cells); err != nil {
				t.Errorf("AppendRow: %v", err)
			}
		}(i)
	}
	wg.Wait()

	table, err := mem.ReadAll(context.Background(), "leads")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(table.Rows) != appends {
		t.Fatalf("rows = %d, want %d", len(table.Rows), appends)
	}

	seen := make(map[int]bool, appends)
	for _, row := range table.Rows {
		if seen[row.Position] {
			t.Fatalf("duplicate position %d", row.Position)
		}
		seen[row.Position] = true
		if row.Position < 1 || row.Position > appends {
			t.Fatalf("position %d out of range", row.Position)
		}
	}
}
