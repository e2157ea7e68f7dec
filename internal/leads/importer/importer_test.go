package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	csvData := "Client Name,Mobile Number,City,Budget\nAsha,+91 98765 43210,Pune,50L\nRavi,9123456789,,\n"

	candidates, err := Parse(strings.NewReader(csvData), "leads.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}

	first := candidates[0]
	if first.Name != "Asha" || first.Phone != "+91 98765 43210" {
		t.Fatalf("unexpected first candidate: %+v", first)
	}
	if first.Note != "City: Pune | Budget: 50L" {
		t.Fatalf("note = %q", first.Note)
	}

	if candidates[1].Note != "" {
		t.Fatalf("empty extras should give empty note, got %q", candidates[1].Note)
	}
}

func TestParseCSVFuzzyHeaders(t *testing.T) {
	csvData := "FULL_NAME,Contact No.\nAsha,9876543210\n"

	candidates, err := Parse(strings.NewReader(csvData), "export.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if candidates[0].Name != "Asha" || candidates[0].Phone != "9876543210" {
		t.Fatalf("fuzzy header detection failed: %+v", candidates[0])
	}
}

func TestParseCSVNoPhoneColumn(t *testing.T) {
	csvData := "Name,City\nAsha,Pune\n"

	if _, err := Parse(strings.NewReader(csvData), "leads.csv"); err == nil {
		t.Fatalf("expected error without phone column")
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	csvData := "Name,Phone,City\nAsha,9876543210\nRavi\n"

	candidates, err := Parse(strings.NewReader(csvData), "leads.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[1].Phone != "" {
		t.Fatalf("short row should give empty phone, got %q", candidates[1].Phone)
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Client Name", "Phone", "Source"},
		{"Asha", "9876543210", "MagicBricks"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	candidates, err := Parse(&buf, "leads.xlsx")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	if candidates[0].Name != "Asha" || candidates[0].Phone != "9876543210" {
		t.Fatalf("unexpected candidate: %+v", candidates[0])
	}
	if candidates[0].Note != "Source: MagicBricks" {
		t.Fatalf("note = %q", candidates[0].Note)
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := Parse(strings.NewReader(""), "leads.csv"); err == nil {
		t.Fatalf("expected error for empty file")
	}
}
