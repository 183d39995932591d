package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables used by the repositories in this package.
const Schema = `
CREATE TABLE IF NOT EXISTS processos (
    id BIGSERIAL PRIMARY KEY,
    numero_cnj TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    fase TEXT NOT NULL DEFAULT '',
    foro TEXT NOT NULL DEFAULT '',
    orgao TEXT NOT NULL DEFAULT '',
    rito TEXT NOT NULL DEFAULT '',
    data_distribuicao DATE,
    data_cadastro DATE,
    data_citacao DATE,
    ultima_movimentacao DATE,
    data_transito_julgado DATE,
    transito_bruto TEXT NOT NULL DEFAULT '',
    resultado_sentenca TEXT NOT NULL DEFAULT '',
    assuntos TEXT NOT NULL DEFAULT '',
    tipo_recurso TEXT NOT NULL DEFAULT '',
    polo_ativo TEXT NOT NULL DEFAULT '',
    total_causa TEXT NOT NULL DEFAULT '',
    total_deferido TEXT NOT NULL DEFAULT '',
    valor_acordo TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_processos_status ON processos (status);
CREATE INDEX IF NOT EXISTS idx_processos_data_cadastro ON processos (data_cadastro);

CREATE TABLE IF NOT EXISTS question_log (
    id UUID PRIMARY KEY,
    question TEXT NOT NULL,
    normalized TEXT NOT NULL,
    category VARCHAR(64) NOT NULL,
    source VARCHAR(16) NOT NULL,
    status VARCHAR(16) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_question_log_created_at ON question_log (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_question_log_category ON question_log (category);

CREATE TABLE IF NOT EXISTS dataset_files (
    id UUID PRIMARY KEY,
    filename VARCHAR(255) NOT NULL,
    content_type VARCHAR(100) NOT NULL,
    size BIGINT NOT NULL,
    storage_path TEXT NOT NULL,
    records INTEGER NOT NULL,
    version UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies Schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
