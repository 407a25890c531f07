package repository

import (
	"context"
	"fmt"

	"nyaydarpan-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for case documents
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

const caseColumns = `
			d.id,
			d.title,
			d.party_names,
			d.defendant_names,
			d.full_text,
			d.outcome,
			d.case_type,
			COALESCE(d.court, ''),
			d.filed_date,
			d.source_url,
			d.ingested_at`

// Insert stores doc unless a document with the same ID or source URL exists.
// partyTokens are the normalized name tokens used by FindByPartyTokens.
// Returns true when a new row was written.
func (r *CaseRepository) Insert(ctx context.Context, doc *models.CaseDocument, partyTokens []string) (bool, error) {
	query := `
		INSERT INTO case_documents (
			id, title, party_names, defendant_names, party_tokens, full_text,
			outcome, case_type, court, filed_date, source_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
		ON CONFLICT DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		doc.ID,
		doc.Title,
		nonNil(doc.PartyNames),
		nonNil(doc.DefendantNames),
		nonNil(partyTokens),
		doc.FullText,
		string(doc.Outcome),
		string(doc.CaseType),
		doc.Court,
		doc.FiledDate,
		doc.SourceURL,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert case document: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// findByPartyTokensQuery ranks documents by how many lookup tokens they share
// before recency, so common tokens cannot crowd out close matches
const findByPartyTokensQuery = `
		SELECT` + caseColumns + `
		FROM case_documents d
		JOIN case_embeddings e ON e.document_id = d.id
		WHERE d.party_tokens && $1
			AND e.model_version = $2
		ORDER BY
			cardinality(ARRAY(
				SELECT unnest(d.party_tokens)
				INTERSECT
				SELECT unnest($1::text[])
			)) DESC,
			d.filed_date DESC,
			d.id
		LIMIT $3`

// FindByPartyTokens returns documents sharing at least one party token with tokens,
// restricted to documents embedded with modelVersion. Documents sharing more
// tokens come first.
func (r *CaseRepository) FindByPartyTokens(ctx context.Context, tokens []string, modelVersion string, limit int) ([]models.CaseDocument, error) {
	if len(tokens) == 0 || limit <= 0 {
		return []models.CaseDocument{}, nil
	}

	rows, err := r.db.Query(ctx, findByPartyTokensQuery, tokens, modelVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases by party: %w", err)
	}
	return collectCases(rows)
}

// GetByIDs loads the documents with the given IDs. Missing IDs are absent from the map.
func (r *CaseRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.CaseDocument, error) {
	out := make(map[uuid.UUID]*models.CaseDocument, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
		SELECT` + caseColumns + `
		FROM case_documents d
		WHERE d.id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases by id: %w", err)
	}
	docs, err := collectCases(rows)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].ID] = &docs[i]
	}
	return out, nil
}

// ListStale returns documents with no embedding or an embedding from a model
// other than modelVersion, oldest first
func (r *CaseRepository) ListStale(ctx context.Context, modelVersion string, limit int) ([]models.CaseDocument, error) {
	query := `
		SELECT` + caseColumns + `
		FROM case_documents d
		LEFT JOIN case_embeddings e ON e.document_id = d.id
		WHERE e.document_id IS NULL OR e.model_version <> $1
		ORDER BY d.ingested_at, d.id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, modelVersion, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale cases: %w", err)
	}
	return collectCases(rows)
}

// Count returns the number of stored case documents
func (r *CaseRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM case_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count case documents: %w", err)
	}
	return n, nil
}

func collectCases(rows pgx.Rows) ([]models.CaseDocument, error) {
	defer rows.Close()

	docs := []models.CaseDocument{}
	for rows.Next() {
		var doc models.CaseDocument
		var outcome, caseType string
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.PartyNames,
			&doc.DefendantNames,
			&doc.FullText,
			&outcome,
			&caseType,
			&doc.Court,
			&doc.FiledDate,
			&doc.SourceURL,
			&doc.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case document: %w", err)
		}
		doc.Outcome = models.CaseOutcome(outcome)
		doc.CaseType = models.CaseType(caseType)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case documents: %w", err)
	}
	return docs, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
