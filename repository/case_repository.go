package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"casequery-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceName identifies datasets read from the processos table.
const SourceName = "postgres:processos"

// caseColumns is the processos column order shared by Load and ReplaceAll.
var caseColumns = []string{
	"numero_cnj", "status", "fase", "foro", "orgao", "rito",
	"data_distribuicao", "data_cadastro", "data_citacao", "ultima_movimentacao",
	"data_transito_julgado", "transito_bruto",
	"resultado_sentenca", "assuntos", "tipo_recurso", "polo_ativo",
	"total_causa", "total_deferido", "valor_acordo",
}

// datasetColumns lists every spreadsheet column the table carries.
var datasetColumns = append(append([]string{}, models.RequiredColumns...),
	models.ColumnOrgan, models.ColumnRite, models.ColumnRegisterDate, models.ColumnSettlement)

// CaseRepository handles database operations for case records
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Load reads every case into a new dataset. It implements dataset.Source.
func (r *CaseRepository) Load(ctx context.Context) (*models.Dataset, error) {
	query := fmt.Sprintf(`SELECT %s FROM processos ORDER BY id`, columnList())

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var records []models.CaseRecord
	for rows.Next() {
		var rec models.CaseRecord
		err := rows.Scan(
			&rec.CaseNumber,
			&rec.Status,
			&rec.Phase,
			&rec.Venue,
			&rec.Organ,
			&rec.Rite,
			&rec.FilingDate,
			&rec.RegisterDate,
			&rec.CitationDate,
			&rec.MovementDate,
			&rec.TransitDate,
			&rec.TransitRaw,
			&rec.Outcome,
			&rec.Subjects,
			&rec.Recourse,
			&rec.Plaintiff,
			&rec.ClaimTotal,
			&rec.AwardedTotal,
			&rec.Settlement,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}

	return models.NewDataset(SourceName, datasetColumns, records), nil
}

// ReplaceAll swaps the table contents for records in one transaction.
func (r *CaseRepository) ReplaceAll(ctx context.Context, records []models.CaseRecord) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM processos`); err != nil {
		return 0, fmt.Errorf("failed to clear cases: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"processos"}, caseColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return caseRow(records[i]), nil
		}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy cases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit cases: %w", err)
	}
	return n, nil
}

// Count returns the number of stored cases
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM processos`).Scan(&n)
	return n, err
}

func columnList() string {
	return strings.Join(caseColumns, ", ")
}

// caseRow orders a record's values like caseColumns. Absent dates become NULL.
func caseRow(rec models.CaseRecord) []any {
	return []any{
		rec.CaseNumber,
		rec.Status,
		rec.Phase,
		rec.Venue,
		rec.Organ,
		rec.Rite,
		dateArg(rec.FilingDate),
		dateArg(rec.RegisterDate),
		dateArg(rec.CitationDate),
		dateArg(rec.MovementDate),
		dateArg(rec.TransitDate),
		rec.TransitRaw,
		rec.Outcome,
		rec.Subjects,
		rec.Recourse,
		rec.Plaintiff,
		rec.ClaimTotal,
		rec.AwardedTotal,
		rec.Settlement,
	}
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
