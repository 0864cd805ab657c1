package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
)

// RatingsRepository provides helpers for tour ratings and their aggregates.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

const ratingColumns = `tour_id, customer_id, score, comment, created_at, updated_at`

// RatingParams captures the payload required to write a rating.
type RatingParams struct {
	TourID     int
	CustomerID int
	Score      int
	Comment    *string
}

// Create inserts a rating. A second rating for the same tour and customer
// returns ErrConflict; an unknown tour returns ErrNotFound.
func (r *RatingsRepository) Create(ctx context.Context, params RatingParams) (domain.Rating, error) {
	const query = `
        INSERT INTO tour_ratings (tour_id, customer_id, score, comment)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + ratingColumns

	rating, err := scanRating(r.pool.QueryRow(ctx, query, params.TourID, params.CustomerID, params.Score, params.Comment))
	if err != nil {
		return domain.Rating{}, translateError(err)
	}
	return rating, nil
}

// CreateMany inserts one rating per customer with the same score inside a single
// transaction. Either every rating is stored or none is.
func (r *RatingsRepository) CreateMany(ctx context.Context, tourID, score int, customerIDs []int) ([]domain.Rating, error) {
	const query = `
        INSERT INTO tour_ratings (tour_id, customer_id, score)
        VALUES ($1, $2, $3)
        RETURNING ` + ratingColumns

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ratings := make([]domain.Rating, 0, len(customerIDs))
	for _, customerID := range customerIDs {
		rating, err := scanRating(tx.QueryRow(ctx, query, tourID, customerID, score))
		if err != nil {
			return nil, translateError(err)
		}
		ratings = append(ratings, rating)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	return ratings, nil
}

// Get retrieves the rating a customer gave a tour.
func (r *RatingsRepository) Get(ctx context.Context, tourID, customerID int) (domain.Rating, error) {
	const query = `SELECT ` + ratingColumns + ` FROM tour_ratings WHERE tour_id = $1 AND customer_id = $2`

	rating, err := scanRating(r.pool.QueryRow(ctx, query, tourID, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// ListByTour returns all ratings of a tour ordered by customer.
func (r *RatingsRepository) ListByTour(ctx context.Context, tourID int) ([]domain.Rating, error) {
	const query = `SELECT ` + ratingColumns + ` FROM tour_ratings WHERE tour_id = $1 ORDER BY customer_id`

	rows, err := r.pool.Query(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

// Update replaces score and comment of an existing rating.
func (r *RatingsRepository) Update(ctx context.Context, params RatingParams) (domain.Rating, error) {
	const query = `
        UPDATE tour_ratings
        SET score = $3, comment = $4, updated_at = now()
        WHERE tour_id = $1 AND customer_id = $2
        RETURNING ` + ratingColumns

	rating, err := scanRating(r.pool.QueryRow(ctx, query, params.TourID, params.CustomerID, params.Score, params.Comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// RatingPatch changes selected fields of a rating. A nil Score keeps the
// stored score. Comment is written only when SetComment is true, and a nil
// Comment then clears it.
type RatingPatch struct {
	TourID     int
	CustomerID int
	Score      *int
	Comment    *string
	SetComment bool
}

// Patch applies a partial update in a single statement.
func (r *RatingsRepository) Patch(ctx context.Context, params RatingPatch) (domain.Rating, error) {
	const query = `
        UPDATE tour_ratings
        SET score = COALESCE($3, score),
            comment = CASE WHEN $5::bool THEN $4 ELSE comment END,
            updated_at = now()
        WHERE tour_id = $1 AND customer_id = $2
        RETURNING ` + ratingColumns

	rating, err := scanRating(r.pool.QueryRow(ctx, query,
		params.TourID, params.CustomerID, params.Score, params.Comment, params.SetComment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// Delete removes the rating a customer gave a tour.
func (r *RatingsRepository) Delete(ctx context.Context, tourID, customerID int) error {
	const query = `DELETE FROM tour_ratings WHERE tour_id = $1 AND customer_id = $2`

	tag, err := r.pool.Exec(ctx, query, tourID, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns the average score and rating count for one tour. Unknown tours
// return ErrNotFound; tours without ratings return a zero count.
func (r *RatingsRepository) Stats(ctx context.Context, tourID int) (domain.RatingStats, error) {
	const query = `
        SELECT COALESCE(AVG(tr.score), 0)::float8 AS average,
               COUNT(tr.id)::int8 AS count
        FROM tours t
        LEFT JOIN tour_ratings tr ON tr.tour_id = t.id
        WHERE t.id = $1
        GROUP BY t.id
    `

	var stats domain.RatingStats
	err := r.pool.QueryRow(ctx, query, tourID).Scan(&stats.Average, &stats.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RatingStats{}, ErrNotFound
		}
		return domain.RatingStats{}, fmt.Errorf("rating stats: %w", err)
	}
	return stats, nil
}

// Ranking order shared by both aggregate queries: best average first, then the
// most reviewed, then title byte order, then id so the order is total.
const aggregateOrder = `
        ORDER BY avg_score DESC, review_count DESC, t.title COLLATE "C" ASC, t.id ASC
        LIMIT $1
`

// TopAggregates groups every rating by tour and returns the best ranked tours.
func (r *RatingsRepository) TopAggregates(ctx context.Context, limit int) ([]domain.TourAggregate, error) {
	const query = `
        SELECT t.id, t.title, AVG(tr.score)::float8 AS avg_score, COUNT(tr.id)::int8 AS review_count
        FROM tour_ratings tr
        JOIN tours t ON t.id = tr.tour_id
        GROUP BY t.id, t.title` + aggregateOrder

	return r.queryAggregates(ctx, query, limit)
}

// AggregatesExcludingCustomer ranks like TopAggregates but skips every tour the
// customer has already rated.
func (r *RatingsRepository) AggregatesExcludingCustomer(ctx context.Context, customerID, limit int) ([]domain.TourAggregate, error) {
	const query = `
        SELECT t.id, t.title, AVG(tr.score)::float8 AS avg_score, COUNT(tr.id)::int8 AS review_count
        FROM tour_ratings tr
        JOIN tours t ON t.id = tr.tour_id
        WHERE tr.tour_id NOT IN (
            SELECT r.tour_id FROM tour_ratings r WHERE r.customer_id = $2
        )
        GROUP BY t.id, t.title` + aggregateOrder

	return r.queryAggregates(ctx, query, limit, customerID)
}

func (r *RatingsRepository) queryAggregates(ctx context.Context, query string, args ...any) ([]domain.TourAggregate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := make([]domain.TourAggregate, 0)
	for rows.Next() {
		var agg domain.TourAggregate
		if err := rows.Scan(&agg.TourID, &agg.Title, &agg.AverageScore, &agg.ReviewCount); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggregates, nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(
		&rating.TourID,
		&rating.CustomerID,
		&rating.Score,
		&rating.Comment,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}
