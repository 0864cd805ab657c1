package domain

import "time"

// Score bounds for a single rating.
const (
	MinScore = 1
	MaxScore = 5
)

// Rating represents a single customer's rating for a tour.
type Rating struct {
	TourID     int
	CustomerID int
	Score      int
	Comment    *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TourAggregate is the per-tour average score and review count derived from ratings.
// Tours without ratings never produce an aggregate.
type TourAggregate struct {
	TourID       int
	Title        string
	AverageScore float64
	ReviewCount  int64
}

// Recommendation is one ranked entry returned to callers.
type Recommendation struct {
	TourID       int
	Title        string
	AverageScore float64
	ReviewCount  int64
}

// RatingStats is the average and count for a single tour. Count may be zero.
type RatingStats struct {
	Average float64
	Count   int64
}
