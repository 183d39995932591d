package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"casequery-backend/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV export. The delimiter (';' or ',') is picked from the header line.
func ReadCSV(source string, r io.Reader) (*models.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrEmptySource
	}
	return FromRows(source, all[0], all[1:])
}

// sniffDelimiter counts separators on the first line; Brazilian spreadsheet exports default to ';'.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{','}) > bytes.Count(line, []byte{';'}) {
		return ','
	}
	return ';'
}
