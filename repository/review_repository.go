package repository

import (
	"context"
	"fmt"

	"nyaydarpan-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewRepository handles database operations for company reviews
type ReviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert stores a review keyed by its ID. Returns true when a new row was written.
func (r *ReviewRepository) Insert(ctx context.Context, review *models.CompanyReview, normalizedCompany string) (bool, error) {
	query := `
		INSERT INTO company_reviews (
			id, company_name, normalized_company, source, rating,
			title, content, pros, cons, review_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	var reviewDate any
	if !review.ReviewDate.IsZero() {
		reviewDate = review.ReviewDate
	}

	tag, err := r.db.Exec(ctx, query,
		review.ID,
		review.CompanyName,
		normalizedCompany,
		review.Source,
		review.Rating,
		review.Title,
		review.Content,
		review.Pros,
		review.Cons,
		reviewDate,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert company review: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByCompany returns the most recent reviews for a normalized company name
func (r *ReviewRepository) ListByCompany(ctx context.Context, normalizedCompany string, limit int) ([]models.CompanyReview, error) {
	query := `
		SELECT
			id,
			company_name,
			source,
			rating,
			title,
			content,
			pros,
			cons,
			COALESCE(review_date, created_at::date)
		FROM company_reviews
		WHERE normalized_company = $1
		ORDER BY review_date DESC NULLS LAST, id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, normalizedCompany, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query company reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.CompanyReview{}
	for rows.Next() {
		var rv models.CompanyReview
		var rating float32
		err := rows.Scan(
			&rv.ID,
			&rv.CompanyName,
			&rv.Source,
			&rating,
			&rv.Title,
			&rv.Content,
			&rv.Pros,
			&rv.Cons,
			&rv.ReviewDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company review: %w", err)
		}
		rv.Rating = float64(rating)
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company reviews: %w", err)
	}
	return reviews, nil
}
