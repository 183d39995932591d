package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"casequery-backend/models"
	"casequery-backend/storage"
)

// Read picks the parser from the file name's extension.
func Read(name string, r io.Reader) (*models.Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return ReadCSV(name, r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(name, r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// LoadFile reads a dataset from the local filesystem.
func LoadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	return Read(path, f)
}

// FileSource loads the dataset from a path on disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(s.Path)
}

// StoredSource loads a previously uploaded spreadsheet from file storage.
type StoredSource struct {
	Storage storage.Storage
	Path    string
}

// Load implements Source.
func (s StoredSource) Load(ctx context.Context) (*models.Dataset, error) {
	rc, err := s.Storage.Download(ctx, s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to download dataset: %w", err)
	}
	defer rc.Close()

	return Read(s.Path, rc)
}
