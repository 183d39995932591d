package models

import (
	"time"
)

// Column names as they appear in the exported case spreadsheet.
const (
	ColumnCaseNumber   = "Número CNJ"
	ColumnStatus       = "Status"
	ColumnPhase        = "Fase"
	ColumnVenue        = "Foro"
	ColumnOrgan        = "Órgão"
	ColumnRite         = "Rito"
	ColumnFilingDate   = "Data de distribuição"
	ColumnRegisterDate = "Data de cadastro"
	ColumnCitationDate = "Data de citação"
	ColumnMovementDate = "Última mov."
	ColumnTransitDate  = "Data de Trânsito em Julgado"
	ColumnOutcome      = "Resultado da Sentença"
	ColumnSubjects     = "Assuntos"
	ColumnRecourse     = "Tipo de Recurso"
	ColumnPlaintiff    = "Envolvidos - Polo Ativo"
	ColumnClaimTotal   = "Total da causa"
	ColumnAwardedTotal = "Total deferido"
	ColumnSettlement   = "Valor do acordo"
)

// RequiredColumns must be present in every dataset source.
var RequiredColumns = []string{
	ColumnCaseNumber,
	ColumnStatus,
	ColumnPhase,
	ColumnVenue,
	ColumnFilingDate,
	ColumnMovementDate,
	ColumnCitationDate,
	ColumnTransitDate,
	ColumnOutcome,
	ColumnSubjects,
	ColumnRecourse,
	ColumnPlaintiff,
	ColumnClaimTotal,
	ColumnAwardedTotal,
}

// CaseStatus values used by the status routines. Any other value is kept verbatim.
const (
	CaseStatusActive   = "ativo"
	CaseStatusArchived = "arquivado"
)

// CaseRecord is one row of the case dataset.
// Dates are civil dates at UTC midnight; nil means absent or unparsable.
// Monetary fields keep the locale-formatted text ("R$ 1.234,56").
// TransitRaw keeps the original transit cell, which uses "-" for "not yet".
type CaseRecord struct {
	CaseNumber   string     `json:"numero_cnj"`
	Status       string     `json:"status"`
	Phase        string     `json:"fase"`
	Venue        string     `json:"foro"`
	Organ        string     `json:"orgao"`
	Rite         string     `json:"rito"`
	FilingDate   *time.Time `json:"data_distribuicao,omitempty"`
	RegisterDate *time.Time `json:"data_cadastro,omitempty"`
	CitationDate *time.Time `json:"data_citacao,omitempty"`
	MovementDate *time.Time `json:"ultima_movimentacao,omitempty"`
	TransitDate  *time.Time `json:"data_transito_julgado,omitempty"`
	TransitRaw   string     `json:"-"`
	Outcome      string     `json:"resultado_sentenca"`
	Subjects     string     `json:"assuntos"`
	Recourse     string     `json:"tipo_recurso"`
	Plaintiff    string     `json:"polo_ativo"`
	ClaimTotal   string     `json:"total_causa"`
	AwardedTotal string     `json:"total_deferido"`
	Settlement   string     `json:"valor_acordo,omitempty"`
}
