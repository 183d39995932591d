// Package dataset turns tabular case exports (CSV, XLSX, database rows) into models.Dataset values.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"casequery-backend/models"
	"casequery-backend/parsing"
)

var (
	ErrMissingColumns    = errors.New("dataset is missing required columns")
	ErrEmptySource       = errors.New("dataset source has no header row")
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// Source loads a complete dataset. Implementations must return a new Dataset on every call.
type Source interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

type columnKind int

const (
	kindText columnKind = iota
	kindDate
	kindMoney
)

// columnKinds lists every column the loader understands and how raw cells are read.
var columnKinds = map[string]columnKind{
	models.ColumnCaseNumber:   kindText,
	models.ColumnStatus:       kindText,
	models.ColumnPhase:        kindText,
	models.ColumnVenue:        kindText,
	models.ColumnOrgan:        kindText,
	models.ColumnRite:         kindText,
	models.ColumnFilingDate:   kindDate,
	models.ColumnRegisterDate: kindDate,
	models.ColumnCitationDate: kindDate,
	models.ColumnMovementDate: kindDate,
	models.ColumnTransitDate:  kindDate,
	models.ColumnOutcome:      kindText,
	models.ColumnSubjects:     kindText,
	models.ColumnRecourse:     kindText,
	models.ColumnPlaintiff:    kindText,
	models.ColumnClaimTotal:   kindMoney,
	models.ColumnAwardedTotal: kindMoney,
	models.ColumnSettlement:   kindMoney,
}

// canonicalColumn maps a header cell to a known column name, matching trimmed and case-insensitively.
func canonicalColumn(header string) (string, bool) {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	for name := range columnKinds {
		if strings.EqualFold(h, name) {
			return name, true
		}
	}
	return "", false
}

// headerIndex maps known column names to their position in the header row.
// The first occurrence of a duplicated column wins.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name, ok := canonicalColumn(h)
		if !ok {
			continue
		}
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	return idx
}

// FromRows builds a dataset from a header row and data rows of raw cell text.
// Unknown columns are ignored, short rows read as empty cells and blank rows are skipped.
func FromRows(source string, header []string, rows [][]string) (*models.Dataset, error) {
	if len(header) == 0 {
		return nil, ErrEmptySource
	}

	idx := headerIndex(header)
	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	columns := make([]string, 0, len(idx))
	for name := range idx {
		columns = append(columns, name)
	}

	records := make([]models.CaseRecord, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		cell := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		records = append(records, models.CaseRecord{
			CaseNumber:   cell(models.ColumnCaseNumber),
			Status:       cell(models.ColumnStatus),
			Phase:        cell(models.ColumnPhase),
			Venue:        cell(models.ColumnVenue),
			Organ:        cell(models.ColumnOrgan),
			Rite:         cell(models.ColumnRite),
			FilingDate:   parsing.ParseDate(cell(models.ColumnFilingDate)),
			RegisterDate: parsing.ParseDate(cell(models.ColumnRegisterDate)),
			CitationDate: parsing.ParseDate(cell(models.ColumnCitationDate)),
			MovementDate: parsing.ParseDate(cell(models.ColumnMovementDate)),
			TransitDate:  parsing.ParseDate(cell(models.ColumnTransitDate)),
			TransitRaw:   cell(models.ColumnTransitDate),
			Outcome:      cell(models.ColumnOutcome),
			Subjects:     cell(models.ColumnSubjects),
			Recourse:     cell(models.ColumnRecourse),
			Plaintiff:    cell(models.ColumnPlaintiff),
			ClaimTotal:   cell(models.ColumnClaimTotal),
			AwardedTotal: cell(models.ColumnAwardedTotal),
			Settlement:   cell(models.ColumnSettlement),
		})
	}

	return models.NewDataset(source, columns, records), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
