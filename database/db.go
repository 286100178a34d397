package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

type PostgresStore struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(connStr string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to the database")
	return &PostgresStore{DB: db, logger: logger}, nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// EnsureSchema creates the required schemas, tables, and indexes if they do
// not already exist. The hf.models, cloud.instances, and
// cloud.bitnami_packages tables are populated by external ingestion jobs;
// they are created here too so a fresh database is immediately runnable.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE SCHEMA IF NOT EXISTS hf`,
		`CREATE SCHEMA IF NOT EXISTS cloud`,
		`CREATE TABLE IF NOT EXISTS hf.models (
            model_id TEXT PRIMARY KEY,
            license TEXT,
            likes BIGINT,
            downloads BIGINT,
            pipeline_tag TEXT,
            tags TEXT[],
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS hf.model_cards (
            model_id TEXT PRIMARY KEY,
            card_text TEXT NOT NULL,
            card_hash TEXT,
            token_count INTEGER,
            excluded_from_rag BOOLEAN NOT NULL DEFAULT FALSE,
            exclusion_reason TEXT,
            fetched_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_model_cards_hash ON hf.model_cards(card_hash)`,
		`CREATE TABLE IF NOT EXISTS hf.card_canon (
            card_hash TEXT PRIMARY KEY,
            canonical_model_id TEXT NOT NULL,
            duplicate_count INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS hf.model_to_card (
            model_id TEXT PRIMARY KEY,
            card_hash TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_model_to_card_hash ON hf.model_to_card(card_hash)`,
		`CREATE TABLE IF NOT EXISTS hf.card_chunks (
            id BIGSERIAL PRIMARY KEY,
            chunk_hash TEXT NOT NULL,
            card_hash TEXT NOT NULL,
            chunk_index INTEGER NOT NULL,
            chunk_text TEXT NOT NULL,
            token_count INTEGER,
            embedding_model_name TEXT NOT NULL,
            chunker_version TEXT NOT NULL,
            embedding vector(1536),
            created_at TIMESTAMPTZ DEFAULT NOW(),
            UNIQUE (chunker_version, embedding_model_name, chunk_hash)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_card_chunks_pending
            ON hf.card_chunks(chunker_version, embedding_model_name)
            WHERE embedding IS NULL`,
		`CREATE TABLE IF NOT EXISTS cloud.instances (
            id TEXT PRIMARY KEY,
            provider TEXT NOT NULL,
            name TEXT NOT NULL,
            instance_type TEXT,
            cpu_threads INTEGER,
            memory_gb NUMERIC,
            gpu_count INTEGER,
            gpu_model TEXT,
            gpu_memory_gb INTEGER,
            price_monthly NUMERIC,
            price_hourly NUMERIC,
            regions JSONB,
            description TEXT,
            available BOOLEAN
        )`,
		`CREATE TABLE IF NOT EXISTS cloud.bitnami_packages (
            package_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            normalized_name TEXT,
            description TEXT,
            version TEXT,
            app_version TEXT,
            category TEXT,
            official BOOLEAN,
            cncf BOOLEAN,
            deprecated BOOLEAN,
            stars BIGINT,
            license TEXT,
            repository_name TEXT,
            repository_official BOOLEAN,
            keywords TEXT[],
            stats_subscriptions BIGINT,
            search_tsv TSVECTOR GENERATED ALWAYS AS (
                to_tsvector('english', coalesce(name, '') || ' ' || coalesce(description, ''))
            ) STORED
        )`,
		`CREATE INDEX IF NOT EXISTS idx_bitnami_packages_tsv
            ON cloud.bitnami_packages USING GIN (search_tsv)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
