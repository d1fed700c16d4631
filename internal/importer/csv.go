package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/webitel/table-importer/internal/errors"
)

// ParseCSV reads the converter's output: a header row naming the columns,
// then data rows. Column names are lower-cased (the tool's casing is not
// guaranteed to match the store's) and numeric-looking values are coerced so
// they land in numeric columns as numbers. Rows shorter than the header are
// padded with NULLs; structural parse errors are fatal.
func ParseCSV(r io.Reader) ([]string, [][]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate short rows, pad below

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.Internal("converter output is empty",
			errors.WithID("importer.csv.empty"))
	}
	if err != nil {
		return nil, nil, parseError(err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, nil, errors.Internal(
				fmt.Sprintf("empty column name at position %d", i+1),
				errors.WithID("importer.csv.header"),
			)
		}
		columns[i] = name
	}

	var rows [][]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, parseError(err)
		}
		if len(record) > len(columns) {
			return nil, nil, errors.Internal(
				fmt.Sprintf("row %d has %d fields, header has %d",
					len(rows)+2, len(record), len(columns)),
				errors.WithID("importer.csv.row_width"),
			)
		}

		row := make([]any, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = coerceValue(record[i])
			}
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

func parseError(err error) error {
	return errors.Internal("malformed converter output", errors.WithCause(err),
		errors.WithID("importer.csv.parse"))
}

// coerceValue turns numeric-looking strings into numbers and empty fields
// into NULL; everything else stays a string.
func coerceValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
