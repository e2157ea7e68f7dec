package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "call after 6pm", "call after 6pm"},
		{"tags stripped", "<b>hot</b> lead", "hot lead"},
		{"encoded tags stripped", "&lt;img src=x onerror=alert(1)&gt;", ""},
		{"entities decoded", "Tom &amp; Jerry", "Tom & Jerry"},
		{"whitespace trimmed", "  spaced  ", "spaced"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
