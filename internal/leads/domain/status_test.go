package domain

import "testing"

func TestIsTerminal(t *testing.T) {
	terminal := []string{"Sold", "SOLD!", "sold - registry pending", "Closed", "Junk", "Invalid number", "Broker"}
	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Fatalf("IsTerminal(%q) = false, want true", s)
		}
	}

	notTerminal := []string{"New", "Call Done", "Lost", "Not Interested", ""}
	for _, s := range notTerminal {
		if IsTerminal(s) {
			t.Fatalf("IsTerminal(%q) = true, want false", s)
		}
	}
}

func TestIsSoftDecline(t *testing.T) {
	declined := []string{"Lost", "lost touch", "Not Interested", "NOT INTERESTED", "NotInterested", "not  interested"}
	for _, s := range declined {
		if !IsSoftDecline(s) {
			t.Fatalf("IsSoftDecline(%q) = false, want true", s)
		}
	}

	if IsSoftDecline("Sold") || IsSoftDecline("New") {
		t.Fatalf("terminal and new statuses must not read as soft decline")
	}
}

func TestIsNew(t *testing.T) {
	if !IsNew("New") || !IsNew("naya") || !IsNew("New Lead") {
		t.Fatalf("new keywords should match")
	}
	if IsNew("Call Done") || IsNew("") {
		t.Fatalf("worked or blank statuses are not new")
	}
}
