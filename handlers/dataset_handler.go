package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"casequery-backend/dataset"
	"casequery-backend/models"
	"casequery-backend/service"
	"casequery-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaseStore persists uploaded records so other instances can load them from the database.
type CaseStore interface {
	ReplaceAll(ctx context.Context, records []models.CaseRecord) (int64, error)
}

// FileLog records accepted uploads.
type FileLog interface {
	Create(ctx context.Context, file *models.DatasetFile) error
	List(ctx context.Context, limit int) ([]*models.DatasetFile, error)
}

// DatasetHandler handles HTTP requests for dataset administration
type DatasetHandler struct {
	queryService      *service.QueryService
	storage           storage.Storage
	caseStore         CaseStore
	fileLog           FileLog
	logger            *zap.Logger
	maxFileSize       int64
	allowedExtensions map[string]bool
}

// DatasetHandlerOption is a functional option for DatasetHandler
type DatasetHandlerOption func(*DatasetHandler)

// WithCaseStore mirrors every uploaded dataset into the database
func WithCaseStore(store CaseStore) DatasetHandlerOption {
	return func(h *DatasetHandler) {
		h.caseStore = store
	}
}

// WithFileLog records every accepted upload
func WithFileLog(log FileLog) DatasetHandlerOption {
	return func(h *DatasetHandler) {
		h.fileLog = log
	}
}

// WithMaxFileSize bounds uploads
func WithMaxFileSize(n int64) DatasetHandlerOption {
	return func(h *DatasetHandler) {
		if n > 0 {
			h.maxFileSize = n
		}
	}
}

// WithHandlerLogger sets the logger
func WithHandlerLogger(logger *zap.Logger) DatasetHandlerOption {
	return func(h *DatasetHandler) {
		h.logger = logger
	}
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(queryService *service.QueryService, fileStorage storage.Storage, opts ...DatasetHandlerOption) *DatasetHandler {
	h := &DatasetHandler{
		queryService: queryService,
		storage:      fileStorage,
		logger:       zap.NewNop(),
		maxFileSize:  20 * 1024 * 1024, // 20MB
		allowedExtensions: map[string]bool{
			".csv":  true,
			".txt":  true,
			".xlsx": true,
			".xlsm": true,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Upload handles POST /api/dataset
func (h *DatasetHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("arquivo")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "O campo 'arquivo' é obrigatório")
		return
	}

	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("O arquivo excede o tamanho máximo de %d bytes", h.maxFileSize))
		return
	}

	if !h.allowedExtensions[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Tipos permitidos: CSV, XLSX, XLSM")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	fileID := uuid.New()
	storagePath, err := h.storage.Upload(ctx, fileID, fileHeader.Filename, file)
	if err != nil {
		h.logger.Error("Failed to store dataset upload", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", fmt.Sprintf("Failed to upload file: %v", err))
		return
	}

	ds, err := h.queryService.LoadFrom(ctx, dataset.StoredSource{Storage: h.storage, Path: storagePath})
	if err != nil {
		// The rejected file is not kept
		if delErr := h.storage.Delete(context.WithoutCancel(ctx), storagePath); delErr != nil {
			h.logger.Warn("Failed to delete rejected upload", zap.String("path", storagePath), zap.Error(delErr))
		}
		h.loadError(c, err)
		return
	}

	if h.caseStore != nil {
		records := make([]models.CaseRecord, 0, ds.Len())
		ds.Each(func(_ int, r models.CaseRecord) { records = append(records, r) })
		if _, err := h.caseStore.ReplaceAll(ctx, records); err != nil {
			// Serving continues from the upload
			h.logger.Warn("Failed to persist uploaded cases", zap.Error(err))
		}
	}

	if h.fileLog != nil {
		record := &models.DatasetFile{
			ID:          fileID,
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			StoragePath: storagePath,
			Records:     ds.Len(),
			Version:     ds.Version,
		}
		if err := h.fileLog.Create(ctx, record); err != nil {
			h.logger.Warn("Failed to record dataset upload", zap.Error(err))
		}
	}

	respondData(c, http.StatusCreated, h.queryService.Info())
}

// ListFiles handles GET /api/dataset/arquivos
func (h *DatasetHandler) ListFiles(c *gin.Context) {
	if h.fileLog == nil {
		respondData(c, http.StatusOK, []*models.DatasetFile{})
		return
	}
	files, err := h.fileLog.List(c.Request.Context(), 20)
	if err != nil {
		h.logger.Error("Failed to list dataset uploads", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error())
		return
	}
	if files == nil {
		files = []*models.DatasetFile{}
	}
	respondData(c, http.StatusOK, files)
}

// Reload handles POST /api/dataset/reload
func (h *DatasetHandler) Reload(c *gin.Context) {
	if _, err := h.queryService.Reload(c.Request.Context()); err != nil {
		h.loadError(c, err)
		return
	}
	respondData(c, http.StatusOK, h.queryService.Info())
}

// Info handles GET /api/dataset
func (h *DatasetHandler) Info(c *gin.Context) {
	respondData(c, http.StatusOK, h.queryService.Info())
}

func (h *DatasetHandler) loadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoDatasetSource):
		respondError(c, http.StatusConflict, "NO_DATASET_SOURCE", "Nenhuma fonte de dados configurada")
	case errors.Is(err, dataset.ErrMissingColumns),
		errors.Is(err, dataset.ErrEmptySource),
		errors.Is(err, dataset.ErrUnsupportedFormat):
		respondError(c, http.StatusUnprocessableEntity, "INVALID_DATASET", err.Error())
	default:
		h.logger.Error("Failed to load dataset", zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "LOAD_FAILED", err.Error())
	}
}
