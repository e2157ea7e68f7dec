package domain

import "testing"

func TestVisibleTo(t *testing.T) {
	manager := Viewer{Username: "boss", DisplayName: "The Boss", Manager: true}
	agent := Viewer{Username: "ravi", DisplayName: "Ravi Kumar"}

	tests := []struct {
		name     string
		assignee string
		viewer   Viewer
		want     bool
	}{
		{"manager sees everything", "someone else", manager, true},
		{"assigned by username", "ravi", agent, true},
		{"assigned by display name", "Ravi Kumar", agent, true},
		{"case insensitive match", "RAVI", agent, true},
		{"shared sentinel", "ALL", agent, true},
		{"shared sentinel lowercase", "all", agent, true},
		{"assigned elsewhere", "priya", agent, false},
		{"blank assignee hidden from agents", "", agent, false},
		{"blank assignee visible to manager", "", manager, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{AssignedTo: tt.assignee}
			if got := lead.VisibleTo(tt.viewer); got != tt.want {
				t.Fatalf("VisibleTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisibleToNeverMatchesEmptyViewerFields(t *testing.T) {
	lead := Lead{AssignedTo: ""}
	viewer := Viewer{Username: "", DisplayName: ""}
	if lead.VisibleTo(viewer) {
		t.Fatalf("empty viewer fields must not match empty assignee")
	}
}
