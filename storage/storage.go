// Package storage keeps uploaded case spreadsheets on the local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage persists uploaded spreadsheets under generated paths.
type Storage interface {
	// Upload stores a spreadsheet and returns its storage path
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download opens a stored spreadsheet
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a stored spreadsheet
	Delete(ctx context.Context, storagePath string) error
}

// Type is the storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

var ErrFileNotFound = errors.New("stored file not found")

// Config selects and configures the backend.
type Config struct {
	Type         Type
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./storage/datasets"
		}
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// storagePath builds "<2-char shard>/<uuid>_<sanitized name><ext>".
func storagePath(fileID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_").Replace(base)

	id := fileID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, base, ext)
}

// contentType maps spreadsheet extensions to MIME types.
func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	default:
		return "application/octet-stream"
	}
}
