package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is an immutable, ordered collection of case records.
// Routines receive it read-only; derived values are computed into local structures.
type Dataset struct {
	Version  uuid.UUID
	Source   string
	LoadedAt time.Time

	records []CaseRecord
	columns map[string]bool
}

// NewDataset copies records and columns into a new dataset with a fresh version.
func NewDataset(source string, columns []string, records []CaseRecord) *Dataset {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}
	recs := make([]CaseRecord, len(records))
	copy(recs, records)

	return &Dataset{
		Version:  uuid.New(),
		Source:   source,
		LoadedAt: time.Now(),
		records:  recs,
		columns:  cols,
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Record returns the i-th record by value.
func (d *Dataset) Record(i int) CaseRecord {
	return d.records[i]
}

// Each calls fn with a copy of every record, in order.
func (d *Dataset) Each(fn func(i int, r CaseRecord)) {
	if d == nil {
		return
	}
	for i, r := range d.records {
		fn(i, r)
	}
}

// HasColumn reports whether the source carried the named column.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	return d.columns[name]
}

// Columns returns the column names present in the source, in declaration order of the schema.
func (d *Dataset) Columns() []string {
	all := append(append([]string{}, RequiredColumns...), ColumnOrgan, ColumnRite, ColumnRegisterDate, ColumnSettlement)
	out := make([]string, 0, len(all))
	for _, c := range all {
		if d.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
