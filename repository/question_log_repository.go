package repository

import (
	"context"

	"casequery-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionLogRepository handles database operations for the question log
type QuestionLogRepository struct {
	db *pgxpool.Pool
}

// NewQuestionLogRepository creates a new question log repository
func NewQuestionLogRepository(db *pgxpool.Pool) *QuestionLogRepository {
	return &QuestionLogRepository{db: db}
}

// Record inserts one answered question
func (r *QuestionLogRepository) Record(ctx context.Context, entry models.QuestionLogEntry) error {
	query := `
		INSERT INTO question_log (
			id, question, normalized, category, source, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(
		ctx, query,
		entry.ID,
		entry.Question,
		entry.Normalized,
		entry.Category,
		string(entry.Source),
		string(entry.Status),
		entry.CreatedAt,
	)
	return err
}

// Recent retrieves the latest logged questions, newest first
func (r *QuestionLogRepository) Recent(ctx context.Context, limit int) ([]models.QuestionLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, question, normalized, category, source, status, created_at
		FROM question_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QuestionLogEntry
	for rows.Next() {
		var e models.QuestionLogEntry
		var source, status string
		err := rows.Scan(
			&e.ID,
			&e.Question,
			&e.Normalized,
			&e.Category,
			&source,
			&status,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		e.Source = models.AnswerSource(source)
		e.Status = models.AnswerStatus(status)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CategoryCounts returns how often each category was asked
func (r *QuestionLogRepository) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT category, count(*) FROM question_log GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
