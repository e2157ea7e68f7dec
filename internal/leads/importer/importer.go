// Package importer parses uploaded lead files (XLSX and CSV) into import
// candidates. Column detection is fuzzy because files come from many ad
// portals, each with its own header spelling.
package importer

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"terratip_backend/platform/apperr"
)

// Candidate is one parsed row from an upload: the fields the pipeline needs
// plus everything else flattened into a note.
type Candidate struct {
	Name  string
	Phone string
	Note  string
}

// Parse reads an uploaded file into candidates. The format is picked from
// the filename extension: .xlsx goes through excelize, everything else is
// treated as CSV.
func Parse(r io.Reader, filename string) ([]Candidate, error) {
	var records [][]string
	var err error

	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		records, err = readXLSX(r)
	} else {
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}

	return extract(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "could not read spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.BadRequest("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "could not read spreadsheet rows", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, "could not read CSV", err)
	}
	return records, nil
}

// extract finds the name and phone columns in the header row and flattens
// the remaining columns into the candidate note.
func extract(records [][]string) ([]Candidate, error) {
	if len(records) == 0 {
		return nil, apperr.BadRequest("file is empty")
	}

	header := records[0]
	nameIdx, phoneIdx := detectColumns(header)
	if phoneIdx < 0 {
		return nil, apperr.BadRequest("no phone column found")
	}

	var candidates []Candidate
	for _, record := range records[1:] {
		c := Candidate{
			Name:  cellAt(record, nameIdx),
			Phone: cellAt(record, phoneIdx),
		}

		var extras []string
		for i, value := range record {
			if i == nameIdx || i == phoneIdx {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" || i >= len(header) {
				continue
			}
			label := strings.TrimSpace(header[i])
			if label == "" {
				continue
			}
			extras = append(extras, label+": "+value)
		}
		c.Note = strings.Join(extras, " | ")

		candidates = append(candidates, c)
	}

	return candidates, nil
}

// detectColumns matches headers loosely: lowercased with non-alphanumerics
// stripped, so "Client Name", "client_name" and "NAME" all hit the name
// column. Phone matches "phone", "mobile" or "contact".
func detectColumns(header []string) (nameIdx, phoneIdx int) {
	nameIdx, phoneIdx = -1, -1
	for i, label := range header {
		normalized := normalizeHeader(label)
		if nameIdx < 0 && strings.Contains(normalized, "name") {
			nameIdx = i
		}
		if phoneIdx < 0 && (strings.Contains(normalized, "phone") ||
			strings.Contains(normalized, "mobile") ||
			strings.Contains(normalized, "contact")) {
			phoneIdx = i
		}
	}
	return nameIdx, phoneIdx
}

func normalizeHeader(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cellAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
