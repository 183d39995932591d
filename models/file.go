package models

import (
	"time"

	"github.com/google/uuid"
)

// DatasetFile records one accepted spreadsheet upload
type DatasetFile struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"nome"`
	ContentType string    `json:"tipo"`
	Size        int64     `json:"tamanho"`
	StoragePath string    `json:"caminho"`
	Records     int       `json:"registros"`
	Version     uuid.UUID `json:"versao"`
	CreatedAt   time.Time `json:"enviado_em"`
}
