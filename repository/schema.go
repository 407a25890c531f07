package repository

import "fmt"

// SchemaStatements returns the DDL for the corpus, embedding and review tables.
// Every statement is idempotent.
func SchemaStatements(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS case_documents (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    party_names TEXT[] NOT NULL DEFAULT '{}',
    defendant_names TEXT[] NOT NULL DEFAULT '{}',
    party_tokens TEXT[] NOT NULL DEFAULT '{}',
    full_text TEXT NOT NULL DEFAULT '',
    outcome VARCHAR(32) NOT NULL CHECK (outcome IN ('plaintiff_won', 'defendant_won', 'settled', 'dismissed', 'unknown')),
    case_type VARCHAR(32) NOT NULL CHECK (case_type IN ('civil', 'criminal', 'labor', 'contract_dispute', 'other')),
    court TEXT,
    filed_date DATE NOT NULL,
    source_url TEXT NOT NULL UNIQUE,
    ingested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS idx_case_documents_party_tokens ON case_documents USING GIN (party_tokens)`,
		`CREATE INDEX IF NOT EXISTS idx_case_documents_filed_date ON case_documents (filed_date DESC)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS case_embeddings (
    document_id UUID PRIMARY KEY REFERENCES case_documents(id) ON DELETE CASCADE,
    model_version VARCHAR(128) NOT NULL,
    embedding vector(%d) NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_case_embeddings_hnsw ON case_embeddings USING hnsw (embedding vector_cosine_ops) WITH (m = 16, ef_construction = 64)`,
		`CREATE INDEX IF NOT EXISTS idx_case_embeddings_model_version ON case_embeddings (model_version)`,
		`CREATE TABLE IF NOT EXISTS company_reviews (
    id UUID PRIMARY KEY,
    company_name TEXT NOT NULL,
    normalized_company TEXT NOT NULL,
    source VARCHAR(64) NOT NULL,
    rating REAL NOT NULL CHECK (rating >= 0 AND rating <= 5),
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    pros TEXT NOT NULL DEFAULT '',
    cons TEXT NOT NULL DEFAULT '',
    review_date DATE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE INDEX IF NOT EXISTS idx_company_reviews_company ON company_reviews (normalized_company, review_date DESC)`,
	}
}
