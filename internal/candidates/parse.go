package candidates

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoCandidates is returned when an import yields no rows at all.
var ErrNoCandidates = errors.New("no candidates found")

// columnAliases maps accepted CSV header spellings to record fields.
var columnAliases = map[string]string{
	"email":         "email",
	"e-mail":        "email",
	"email address": "email",
	"name":          "name",
	"full name":     "name",
	"phone":         "phone",
	"phone number":  "phone",
	"job_title":     "job_title",
	"job title":     "job_title",
	"jobtitle":      "job_title",
	"title":         "job_title",
	"ats_id":        "ats_id",
	"ats id":        "ats_id",
	"id":            "ats_id",
}

// ParseCSV reads a candidate CSV with a header row. The email column is
// required; name, phone, job title and ATS id columns are optional. Header
// names are matched case-insensitively and blank rows are skipped.
func ParseCSV(r io.Reader) (List, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoCandidates
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if _, ok := colIndex["email"]; !ok {
		return nil, fmt.Errorf("candidate CSV missing required column: email")
	}

	var list List
	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read candidate line %d: %w", lineNum, err)
		}
		if blankRow(row) {
			continue
		}

		rec := NewRecord(
			getField(row, colIndex, "email"),
			getField(row, colIndex, "name"),
			getField(row, colIndex, "phone"),
		)
		rec.JobTitle = getField(row, colIndex, "job_title")
		rec.ATSID = getField(row, colIndex, "ats_id")
		list = append(list, rec)
	}

	if len(list) == 0 {
		return nil, ErrNoCandidates
	}
	return list, nil
}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.TrimSpace(strings.ToLower(col))
		if field, ok := columnAliases[key]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	return index
}

func getField(row []string, colIndex map[string]int, field string) string {
	idx, ok := colIndex[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParsePasted parses candidates typed or pasted into a text box, one per line.
//
// A line is either comma-separated "email,name,phone" or whitespace-separated,
// in which case the first token containing "@" is the email and the remaining
// tokens form the name. Blank lines are skipped.
func ParsePasted(text string) (List, error) {
	var list List
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, ",") {
			parts := strings.Split(line, ",")
			for len(parts) < 3 {
				parts = append(parts, "")
			}
			list = append(list, NewRecord(parts[0], parts[1], parts[2]))
			continue
		}

		fields := strings.Fields(line)
		at := 0
		for i, f := range fields {
			if strings.Contains(f, "@") {
				at = i
				break
			}
		}
		name := make([]string, 0, len(fields)-1)
		name = append(name, fields[:at]...)
		name = append(name, fields[at+1:]...)
		list = append(list, NewRecord(fields[at], strings.Join(name, " "), ""))
	}

	if len(list) == 0 {
		return nil, ErrNoCandidates
	}
	return list, nil
}
