package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"adventurebuddha/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ContactRow is one parsed line of an uploaded contact file.
type ContactRow struct {
	Name   string
	Phone  string
	Email  string
	Custom map[string]string
}

var columnHints = []struct {
	field string
	hints []string
}{
	{"phone", []string{"phone", "mobile", "number", "contact", "tel"}},
	{"email", []string{"email", "e-mail", "mail"}},
	{"name", []string{"name", "full_name", "first_name", "customer_name"}},
}

// DetectColumns maps the phone, name and email fields onto header names.
// A header is used for at most one field.
func DetectColumns(headers []string) map[string]string {
	out := map[string]string{}
	used := map[string]bool{}
	// exact header names win over substring matches
	for _, exact := range []bool{true, false} {
		for _, h := range columnHints {
			if out[h.field] != "" {
				continue
			}
			for _, header := range headers {
				lower := strings.ToLower(strings.TrimSpace(header))
				if used[header] || lower == "" {
					continue
				}
				if matchesHint(lower, h.hints, exact) {
					out[h.field] = header
					used[header] = true
					break
				}
			}
		}
	}
	return out
}

func matchesHint(header string, hints []string, exact bool) bool {
	for _, hint := range hints {
		if (exact && header == hint) || (!exact && strings.Contains(header, hint)) {
			return true
		}
	}
	return false
}

// ParseContactFile reads a CSV or XLSX upload. mapping may be nil, in which
// case columns are detected from the header row. It returns the rows and the
// mapping that was applied.
func ParseContactFile(filename string, r io.Reader, mapping map[string]string) ([]ContactRow, map[string]string, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, nil, domain.ValidationError{Field: "file", Msg: "Unsupported file format. Upload a CSV or XLSX file."}
	}
	if err != nil {
		return nil, nil, domain.ValidationError{Field: "file", Msg: "could not read file", Err: err}
	}
	if len(records) == 0 {
		return nil, nil, domain.ValidationError{Field: "file", Msg: "file is empty"}
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\uFEFF"))
	}
	if len(mapping) == 0 {
		mapping = DetectColumns(headers)
	}
	if mapping["phone"] == "" {
		return nil, mapping, domain.ValidationError{Field: "column_mapping", Msg: "no phone number column found"}
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	mapped := map[string]bool{}
	for _, col := range mapping {
		if _, ok := index[col]; !ok {
			return nil, mapping, domain.ValidationError{Field: "column_mapping", Msg: fmt.Sprintf("column %q not found", col)}
		}
		mapped[col] = true
	}

	cell := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || col == "" || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rows := make([]ContactRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := ContactRow{
			Name:   cell(rec, mapping["name"]),
			Phone:  cell(rec, mapping["phone"]),
			Email:  cell(rec, mapping["email"]),
			Custom: map[string]string{},
		}
		if row.Phone == "" && row.Name == "" && row.Email == "" {
			continue
		}
		for _, h := range headers {
			if mapped[h] || h == "" {
				continue
			}
			if v := cell(rec, h); v != "" {
				row.Custom[h] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, mapping, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}
