package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"casequery-backend/models"
	"casequery-backend/parsing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseRow_MatchesColumns(t *testing.T) {
	rec := models.CaseRecord{
		CaseNumber: "0001",
		Status:     "Ativo",
		FilingDate: parsing.ParseDate("01/02/2024"),
		TransitRaw: "-",
		ClaimTotal: "R$ 1.000,00",
		Settlement: "R$ 10,00",
	}

	row := caseRow(rec)

	require.Len(t, row, len(caseColumns))
	assert.Equal(t, "0001", row[0])
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), row[6])
	assert.Nil(t, row[7], "absent dates are written as NULL")
	assert.Equal(t, "-", row[11])
	assert.Equal(t, "R$ 10,00", row[len(row)-1])
}

func TestDatasetColumns_CoverRequired(t *testing.T) {
	ds := models.NewDataset(SourceName, datasetColumns, nil)
	for _, c := range models.RequiredColumns {
		assert.True(t, ds.HasColumn(c), c)
	}
	assert.True(t, ds.HasColumn(models.ColumnRegisterDate))
}

// testPool connects to TEST_DATABASE_URL; tests needing Postgres skip without it.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func TestCaseRepository_ReplaceAllAndLoad(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewCaseRepository(pool)

	records := []models.CaseRecord{
		{CaseNumber: "A", Status: "Ativo", Venue: "Rio de Janeiro - RJ", RegisterDate: parsing.ParseDate("15/10/2024"), TransitRaw: "-"},
		{CaseNumber: "B", Status: "Arquivado", Venue: "São Paulo - SP", ClaimTotal: "R$ 2.000,00"},
	}
	n, err := repo.ReplaceAll(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ds, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, SourceName, ds.Source)
	assert.Equal(t, "A", ds.Record(0).CaseNumber)
	assert.Equal(t, records[0].RegisterDate.Unix(), ds.Record(0).RegisterDate.Unix())
	assert.Nil(t, ds.Record(1).RegisterDate)
	assert.Equal(t, "R$ 2.000,00", ds.Record(1).ClaimTotal)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQuestionLogRepository(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewQuestionLogRepository(pool)

	entry := models.QuestionLogEntry{
		ID:         uuid.New(),
		Question:   "Quantos processos ativos?",
		Normalized: "quantos processos ativos",
		Category:   "processos_ativos",
		Source:     models.SourceComputed,
		Status:     models.AnswerOK,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Record(ctx, entry))

	recent, err := repo.Recent(ctx, 500)
	require.NoError(t, err)
	var found bool
	for _, e := range recent {
		if e.ID == entry.ID {
			found = true
			assert.Equal(t, entry.Normalized, e.Normalized)
			assert.Equal(t, models.SourceComputed, e.Source)
		}
	}
	assert.True(t, found)

	counts, err := repo.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts["processos_ativos"], 1)
}

func TestFileRepository(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewFileRepository(pool)

	file := &models.DatasetFile{
		ID:          uuid.New(),
		Filename:    "processos.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        1024,
		StoragePath: "ab/abc_processos.xlsx",
		Records:     10,
		Version:     uuid.New(),
	}
	require.NoError(t, repo.Create(ctx, file))
	t.Cleanup(func() { repo.Delete(ctx, file.ID) })
	assert.False(t, file.CreatedAt.IsZero())

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, file.ID, latest.ID)
	assert.Equal(t, file.Version, latest.Version)
}
