package service

import (
	"context"
	"fmt"
	"time"

	"casequery-backend/dataset"
	"casequery-backend/models"

	"go.uber.org/zap"
)

// DatasetInfo describes the dataset currently served.
type DatasetInfo struct {
	Loaded   bool   `json:"carregado"`
	Version  string `json:"versao,omitempty"`
	Source   string `json:"origem,omitempty"`
	Records  int    `json:"registros"`
	LoadedAt string `json:"carregado_em,omitempty"`
}

// SetDataset swaps the served dataset atomically and purges cached fallback answers.
// In-flight questions keep the dataset they started with.
func (s *QueryService) SetDataset(ctx context.Context, ds *models.Dataset) {
	s.dataset.Store(ds)
	s.logger.Info("Dataset loaded",
		zap.String("source", ds.Source),
		zap.String("version", ds.Version.String()),
		zap.Int("records", ds.Len()))

	if s.fallback == nil {
		return
	}
	if err := s.fallback.Purge(ctx); err != nil {
		s.logger.Warn("Failed to purge answer cache", zap.Error(err))
	}
}

// Dataset returns the served dataset, or nil before the first load.
func (s *QueryService) Dataset() *models.Dataset {
	return s.dataset.Load()
}

// Info summarizes the served dataset.
func (s *QueryService) Info() DatasetInfo {
	ds := s.dataset.Load()
	if ds == nil {
		return DatasetInfo{}
	}
	return DatasetInfo{
		Loaded:   true,
		Version:  ds.Version.String(),
		Source:   ds.Source,
		Records:  ds.Len(),
		LoadedAt: ds.LoadedAt.Format(time.RFC3339),
	}
}

// Reload reads the configured source again and serves the result.
func (s *QueryService) Reload(ctx context.Context) (*models.Dataset, error) {
	s.sourceMu.Lock()
	src := s.source
	s.sourceMu.Unlock()

	if src == nil {
		return nil, ErrNoDatasetSource
	}
	return s.load(ctx, src)
}

// LoadFrom loads src and, on success, makes it the source for later reloads.
func (s *QueryService) LoadFrom(ctx context.Context, src dataset.Source) (*models.Dataset, error) {
	ds, err := s.load(ctx, src)
	if err != nil {
		return nil, err
	}
	s.sourceMu.Lock()
	s.source = src
	s.sourceMu.Unlock()
	return ds, nil
}

func (s *QueryService) load(ctx context.Context, src dataset.Source) (*models.Dataset, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	s.SetDataset(ctx, ds)
	return ds, nil
}
