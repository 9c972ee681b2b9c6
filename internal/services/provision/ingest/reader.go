// Package ingest turns an account CSV into a deduplicated list of entries
package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/validate"
	"ballotbox/internal/services/provision/domain"

	"golang.org/x/text/cases"
)

// ErrEmptyInput is returned when the CSV holds no rows at all
var ErrEmptyInput = perr.New(perr.ErrorCodeValidation, "csv is empty")

const (
	colIdentifier = "email"
	colSecret     = "password"
	bom           = "\ufeff"
)

// Result is the ingestion outcome in source order
type Result struct {
	Entries   []domain.Entry
	Skipped   []domain.Skip
	RowsRead  int
	HasHeader bool
}

// ReadFile opens path and reads it
func ReadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, perr.Wrapf(err, perr.ErrorCodeConfig, "CSV file not found: %s", path)
		}
		return Result{}, perr.Wrapf(err, perr.ErrorCodeConfig, "open csv %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read parses rows from r, detects a header, validates and deduplicates
func Read(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Result{}, perr.Wrap(err, perr.ErrorCodeValidation, "parse csv")
	}
	if len(rows) == 0 {
		return Result{}, ErrEmptyInput
	}
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], bom)
	}

	res := Result{RowsRead: len(rows)}
	start := 0
	var cols map[string]int
	if isHeader(rows[0]) {
		cols = columnIndex(rows[0])
		res.HasHeader = true
		start = 1
	}

	seen := make(map[string]int, len(rows))
	for i := start; i < len(rows); i++ {
		row := rows[i]
		rowNo := i + 1
		if len(row) < 2 {
			res.Skipped = append(res.Skipped, domain.Skip{Row: rowNo, Reason: domain.SkipMalformed, Fields: row})
			continue
		}

		e := domain.Entry{
			Identifier: strings.TrimSpace(pick(row, cols, colIdentifier, 0)),
			Secret:     strings.TrimSpace(pick(row, cols, colSecret, 1)),
			Row:        rowNo,
		}
		if err := validate.Struct(e); err != nil {
			detail := err.Error()
			if pe, ok := perr.As(err); ok {
				detail = pe.Message()
			}
			res.Skipped = append(res.Skipped, domain.Skip{Row: rowNo, Reason: domain.SkipEmpty, Fields: row, Detail: detail})
			continue
		}

		if first, dup := seen[e.Identifier]; dup {
			res.Skipped = append(res.Skipped, domain.Skip{Row: rowNo, Reason: domain.SkipDuplicate, Fields: row, FirstRow: first})
			continue
		}
		seen[e.Identifier] = rowNo
		res.Entries = append(res.Entries, e)
	}
	return res, nil
}

// fold builds a fresh Caser per call since a Caser holds transform state
func fold(s string) string { return cases.Fold().String(strings.TrimSpace(s)) }

// isHeader reports whether the first row names the email or password column
func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	for _, f := range row {
		switch fold(f) {
		case colIdentifier, colSecret:
			return true
		}
	}
	return false
}

// columnIndex maps folded header names to their first position
func columnIndex(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, h := range header {
		k := fold(h)
		if _, ok := out[k]; !ok {
			out[k] = i
		}
	}
	return out
}

// pick returns the named column, falling back to pos when unmapped or blank
func pick(row []string, cols map[string]int, name string, pos int) string {
	if i, ok := cols[name]; ok && i < len(row) && strings.TrimSpace(row[i]) != "" {
		return row[i]
	}
	return row[pos]
}
