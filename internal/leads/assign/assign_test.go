package assign

import "testing"

func TestRoundRobinBalance(t *testing.T) {
	rr, err := NewRoundRobin([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("NewRoundRobin: %v", err)
	}

	counts := make(map[string]int)
	for i := 0; i < 10; i++ {
		counts[rr.Next()]++
	}

	// 10 leads over 3 agents must split 4/3/3.
	if counts["a"] != 4 || counts["b"] != 3 || counts["c"] != 3 {
		t.Fatalf("uneven split: %v", counts)
	}
}

func TestRoundRobinCycleOrder(t *testing.T) {
	rr, err := NewRoundRobin([]string{"x", "y"})
	if err != nil {
		t.Fatalf("NewRoundRobin: %v", err)
	}

	want := []string{"x", "y", "x", "y", "x"}
	for i, w := range want {
		if got := rr.Next(); got != w {
			t.Fatalf("call %d = %q, want %q", i, got, w)
		}
	}
}

func TestRoundRobinRequiresAgents(t *testing.T) {
	if _, err := NewRoundRobin(nil); err == nil {
		t.Fatalf("expected error for empty agent list")
	}
}
