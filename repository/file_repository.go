package repository

import (
	"context"
	"errors"

	"casequery-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoUploads is returned by Latest before the first accepted upload.
var ErrNoUploads = errors.New("no dataset uploads recorded")

// FileRepository handles database operations for dataset uploads
type FileRepository struct {
	db *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

// Create records an accepted upload
func (r *FileRepository) Create(ctx context.Context, file *models.DatasetFile) error {
	query := `
		INSERT INTO dataset_files (
			id, filename, content_type, size, storage_path, records, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRow(
		ctx, query,
		file.ID,
		file.Filename,
		file.ContentType,
		file.Size,
		file.StoragePath,
		file.Records,
		file.Version,
	).Scan(&file.CreatedAt)
}

// Latest retrieves the most recent upload
func (r *FileRepository) Latest(ctx context.Context) (*models.DatasetFile, error) {
	files, err := r.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoUploads
	}
	return files[0], nil
}

// List retrieves recent uploads, newest first
func (r *FileRepository) List(ctx context.Context, limit int) ([]*models.DatasetFile, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, filename, content_type, size, storage_path, records, version, created_at
		FROM dataset_files
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.DatasetFile, error) {
		file := &models.DatasetFile{}
		err := row.Scan(
			&file.ID,
			&file.Filename,
			&file.ContentType,
			&file.Size,
			&file.StoragePath,
			&file.Records,
			&file.Version,
			&file.CreatedAt,
		)
		return file, err
	})
}

// Delete deletes an upload record
func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM dataset_files WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
