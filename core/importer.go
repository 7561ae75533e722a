package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ReadCSVRows reads a CSV with a header row into header-keyed records.
// Header names are matched case-insensitively; every column named in required
// must be present. Cell values are whitespace-trimmed.
func ReadCSVRows(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, NewValidationError(errors.New("the file is empty"))
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[CleanString(col, true /* lower */)] = i
	}
	var missing []FieldError
	for _, col := range required {
		if _, ok := colIdx[strings.ToLower(col)]; !ok {
			missing = append(missing, FieldError{Field: col, Error: "missing required column"})
		}
	}
	if missing != nil {
		return nil, NewValidationError(errors.New("missing required columns"), missing...)
	}

	var rows []map[string]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading CSV row %d", len(rows)+2)
		}
		row := make(map[string]string, len(colIdx))
		for col, i := range colIdx {
			if i < len(rec) {
				row[col] = CleanString(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CheckDuplicateIDs rejects the whole import when the ID column contains the
// same value more than once; the error lists every offending ID.
func CheckDuplicateIDs(rows []map[string]string, idColumn string) error {
	idColumn = strings.ToLower(idColumn)
	seen := make(map[string]bool, len(rows))
	var dups []FieldError
	dupSeen := make(map[string]bool)
	for _, row := range rows {
		id := row[idColumn]
		if seen[id] && !dupSeen[id] {
			dups = append(dups, FieldError{Field: id, Error: fmt.Sprintf("duplicate %s", idColumn)})
			dupSeen[id] = true
		}
		seen[id] = true
	}
	if dups != nil {
		return NewValidationError(errors.New("the import contains duplicate IDs"), dups...)
	}
	return nil
}

// TemplateCSV renders a one-row sample CSV for an import template download.
func TemplateCSV(header []string, sample []string) []byte {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(header)
	_ = w.Write(sample)
	w.Flush()
	return []byte(b.String())
}
