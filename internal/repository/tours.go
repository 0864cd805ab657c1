package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
)

// ToursRepository provides persistence helpers for tours.
type ToursRepository struct {
	pool *pgxpool.Pool
}

const tourColumns = `id, title, description, created_at`

// TourCreateParams bundles the fields required to create a tour.
type TourCreateParams struct {
	Title       string
	Description *string
}

// Create inserts a new tour row and returns the stored entity.
func (r *ToursRepository) Create(ctx context.Context, params TourCreateParams) (domain.Tour, error) {
	const query = `
        INSERT INTO tours (title, description)
        VALUES ($1, $2)
        RETURNING ` + tourColumns

	return scanTour(r.pool.QueryRow(ctx, query, params.Title, params.Description))
}

// GetByID fetches a tour by its identifier.
func (r *ToursRepository) GetByID(ctx context.Context, id int) (domain.Tour, error) {
	const query = `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`

	tour, err := scanTour(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tour{}, ErrNotFound
		}
		return domain.Tour{}, err
	}
	return tour, nil
}

// FindByTitle returns every tour with exactly this title, oldest first.
func (r *ToursRepository) FindByTitle(ctx context.Context, title string) ([]domain.Tour, error) {
	const query = `SELECT ` + tourColumns + ` FROM tours WHERE title = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, title)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Tour
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, tour)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanTour(row pgx.Row) (domain.Tour, error) {
	var tour domain.Tour
	err := row.Scan(&tour.ID, &tour.Title, &tour.Description, &tour.CreatedAt)
	if err != nil {
		return domain.Tour{}, err
	}
	return tour, nil
}
