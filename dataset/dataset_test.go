package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"casequery-backend/models"
	"casequery-backend/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []string{
	models.ColumnCaseNumber, models.ColumnStatus, models.ColumnPhase, models.ColumnVenue,
	models.ColumnFilingDate, models.ColumnMovementDate, models.ColumnCitationDate, models.ColumnTransitDate,
	models.ColumnOutcome, models.ColumnSubjects, models.ColumnRecourse, models.ColumnPlaintiff,
	models.ColumnClaimTotal, models.ColumnAwardedTotal,
}

func row(number, status, filing string) []string {
	return []string{
		number, status, "Recursal", "São Paulo - SP",
		filing, "10/10/2024", "-", "-",
		"Sentença improcedente", "Verbas rescisórias", "-", "Maria Souza",
		"R$ 1.000,00", "R$ 0,00",
	}
}

func TestFromRows(t *testing.T) {
	ds, err := FromRows("test", header, [][]string{
		row("0001", "Ativo", "01/10/2024"),
		{"", "  ", ""},
		row("0002", "Arquivado", "invalid"),
		{"0003", "Ativo"},
	})
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len())
	first := ds.Record(0)
	assert.Equal(t, "0001", first.CaseNumber)
	assert.Equal(t, "São Paulo - SP", first.Venue)
	require.NotNil(t, first.FilingDate)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), *first.FilingDate)
	assert.Nil(t, first.CitationDate)
	assert.Nil(t, first.TransitDate)
	assert.Equal(t, "-", first.TransitRaw)
	assert.Equal(t, "R$ 1.000,00", first.ClaimTotal)

	assert.Nil(t, ds.Record(1).FilingDate, "unparsable dates are absent")
	assert.Equal(t, "", ds.Record(2).Venue, "short rows read as empty cells")

	assert.True(t, ds.HasColumn(models.ColumnStatus))
	assert.False(t, ds.HasColumn(models.ColumnSettlement))
	assert.False(t, ds.HasColumn(models.ColumnRite))
	assert.Equal(t, "test", ds.Source)
}

func TestFromRows_MissingColumns(t *testing.T) {
	_, err := FromRows("test", header[:3], nil)

	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), models.ColumnVenue)
}

func TestFromRows_EmptyHeader(t *testing.T) {
	_, err := FromRows("test", nil, nil)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestFromRows_HeaderMatching(t *testing.T) {
	h := append([]string{}, header...)
	h[0] = "\ufeff  número cnj "
	h[1] = "STATUS"
	h = append(h, "Coluna extra", models.ColumnSettlement)

	ds, err := FromRows("test", h, [][]string{append(row("0001", "Ativo", "01/10/2024"), "x", "R$ 5,00")})
	require.NoError(t, err)

	assert.Equal(t, "0001", ds.Record(0).CaseNumber)
	assert.Equal(t, "Ativo", ds.Record(0).Status)
	assert.Equal(t, "R$ 5,00", ds.Record(0).Settlement)
	assert.True(t, ds.HasColumn(models.ColumnSettlement))
}

func TestFromRows_NewVersionPerLoad(t *testing.T) {
	a, err := FromRows("test", header, nil)
	require.NoError(t, err)
	b, err := FromRows("test", header, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Version, b.Version)
}

func csvLine(fields []string, sep string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.Contains(f, sep) {
			f = `"` + f + `"`
		}
		out[i] = f
	}
	return strings.Join(out, sep)
}

func csvText(sep string) string {
	return csvLine(header, sep) + "\n" +
		csvLine(row("0001", "Ativo", "01/10/2024"), sep) + "\n" +
		csvLine(row("0002", "Arquivado", "02/10/2024"), sep) + "\n"
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semicolon", csvText(";")},
		{"semicolon with BOM", "\xEF\xBB\xBF" + csvText(";")},
		{"comma with quoted money", csvText(",")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV("casos.csv", strings.NewReader(tt.data))
			require.NoError(t, err)

			require.Equal(t, 2, ds.Len())
			assert.Equal(t, "0001", ds.Record(0).CaseNumber)
			assert.Equal(t, "Arquivado", ds.Record(1).Status)
			assert.Equal(t, "R$ 1.000,00", ds.Record(0).ClaimTotal)
			assert.Equal(t, "R$ 0,00", ds.Record(0).AwardedTotal)
		})
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV("casos.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptySource)
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &cells))

	r := row("0001", "Ativo", "01/10/2024")
	values := make([]interface{}, len(r))
	for i, v := range r {
		values[i] = v
	}
	values[4] = time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	values[12] = 1500.5
	require.NoError(t, f.SetSheetRow(sheet, "A2", &values))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	ds, err := ReadXLSX("casos.xlsx", bytes.NewReader(workbook(t)))
	require.NoError(t, err)

	require.Equal(t, 1, ds.Len())
	rec := ds.Record(0)
	assert.Equal(t, "0001", rec.CaseNumber)
	require.NotNil(t, rec.FilingDate)
	assert.Equal(t, time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC), *rec.FilingDate)
	require.NotNil(t, rec.MovementDate)
	assert.Equal(t, time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC), *rec.MovementDate)
	assert.Equal(t, "R$ 1.500,50", rec.ClaimTotal)
	assert.Equal(t, "R$ 0,00", rec.AwardedTotal)
}

func TestRead_UnsupportedFormat(t *testing.T) {
	_, err := Read("casos.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casos.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvText(";")), 0o600))

	ds, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FileSource{Path: path}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoredSource(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	path, err := store.Upload(ctx, uuid.New(), "casos.xlsx", bytes.NewReader(workbook(t)))
	require.NoError(t, err)

	ds, err := StoredSource{Storage: store, Path: path}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = StoredSource{Storage: store, Path: "missing.csv"}.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}
