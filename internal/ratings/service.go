// Package ratings implements the tour rating use cases on top of the
// repository layer.
package ratings

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
	"github.com/Clark-Hu/tour-ratings/internal/repository"
)

var (
	// ErrTourNotFound is returned when the tour does not exist.
	ErrTourNotFound = errors.New("ratings: tour not found")
	// ErrRatingNotFound is returned when the customer has not rated the tour.
	ErrRatingNotFound = errors.New("ratings: rating not found")
	// ErrNoRatings is returned for the average of a tour nobody rated.
	ErrNoRatings = errors.New("ratings: tour has no ratings")
	// ErrInvalidScore is returned for a score outside MinScore..MaxScore.
	ErrInvalidScore = errors.New("ratings: invalid score")
)

// TourStore looks tours up.
type TourStore interface {
	GetByID(ctx context.Context, id int) (domain.Tour, error)
}

// RatingStore persists ratings.
type RatingStore interface {
	Create(ctx context.Context, params repository.RatingParams) (domain.Rating, error)
	CreateMany(ctx context.Context, tourID, score int, customerIDs []int) ([]domain.Rating, error)
	ListByTour(ctx context.Context, tourID int) ([]domain.Rating, error)
	Update(ctx context.Context, params repository.RatingParams) (domain.Rating, error)
	Patch(ctx context.Context, params repository.RatingPatch) (domain.Rating, error)
	Delete(ctx context.Context, tourID, customerID int) error
	Stats(ctx context.Context, tourID int) (domain.RatingStats, error)
}

// Service validates tour existence and delegates to the stores.
type Service struct {
	tours   TourStore
	ratings RatingStore
}

// NewService constructs a Service.
func NewService(tours TourStore, ratings RatingStore) *Service {
	return &Service{tours: tours, ratings: ratings}
}

// LookupRatings lists every rating of a tour.
func (s *Service) LookupRatings(ctx context.Context, tourID int) ([]domain.Rating, error) {
	if err := s.verifyTour(ctx, tourID); err != nil {
		return nil, err
	}
	return s.ratings.ListByTour(ctx, tourID)
}

// AverageScore returns the mean score of a tour.
func (s *Service) AverageScore(ctx context.Context, tourID int) (float64, error) {
	stats, err := s.ratings.Stats(ctx, tourID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrTourNotFound
		}
		return 0, err
	}
	if stats.Count == 0 {
		return 0, ErrNoRatings
	}
	return stats.Average, nil
}

// CreateNew stores a customer's first rating of a tour. A second rating by the
// same customer returns repository.ErrConflict.
func (s *Service) CreateNew(ctx context.Context, tourID, customerID, score int, comment *string) (domain.Rating, error) {
	if err := checkScore(score); err != nil {
		return domain.Rating{}, err
	}
	if err := s.verifyTour(ctx, tourID); err != nil {
		return domain.Rating{}, err
	}
	rating, err := s.ratings.Create(ctx, repository.RatingParams{
		TourID:     tourID,
		CustomerID: customerID,
		Score:      score,
		Comment:    comment,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Rating{}, ErrTourNotFound
	}
	return rating, err
}

// Update replaces score and comment of an existing rating.
func (s *Service) Update(ctx context.Context, tourID, customerID, score int, comment *string) (domain.Rating, error) {
	if err := checkScore(score); err != nil {
		return domain.Rating{}, err
	}
	if err := s.verifyTour(ctx, tourID); err != nil {
		return domain.Rating{}, err
	}
	rating, err := s.ratings.Update(ctx, repository.RatingParams{
		TourID:     tourID,
		CustomerID: customerID,
		Score:      score,
		Comment:    comment,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Rating{}, ErrRatingNotFound
	}
	return rating, err
}

// UpdateSome changes only the non-nil fields of an existing rating. A
// non-nil empty comment clears the stored comment.
func (s *Service) UpdateSome(ctx context.Context, tourID, customerID int, score *int, comment *string) (domain.Rating, error) {
	if score != nil {
		if err := checkScore(*score); err != nil {
			return domain.Rating{}, err
		}
	}
	if err := s.verifyTour(ctx, tourID); err != nil {
		return domain.Rating{}, err
	}

	patch := repository.RatingPatch{TourID: tourID, CustomerID: customerID, Score: score}
	if comment != nil {
		patch.SetComment = true
		if *comment != "" {
			patch.Comment = comment
		}
	}
	rating, err := s.ratings.Patch(ctx, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Rating{}, ErrRatingNotFound
	}
	return rating, err
}

// Delete removes a customer's rating of a tour.
func (s *Service) Delete(ctx context.Context, tourID, customerID int) error {
	if err := s.verifyTour(ctx, tourID); err != nil {
		return err
	}
	err := s.ratings.Delete(ctx, tourID, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRatingNotFound
	}
	return err
}

// RateMany gives the same score to a tour on behalf of several customers in
// one transaction.
func (s *Service) RateMany(ctx context.Context, tourID, score int, customerIDs []int) ([]domain.Rating, error) {
	if err := checkScore(score); err != nil {
		return nil, err
	}
	if err := s.verifyTour(ctx, tourID); err != nil {
		return nil, err
	}
	if len(customerIDs) == 0 {
		return []domain.Rating{}, nil
	}
	created, err := s.ratings.CreateMany(ctx, tourID, score, customerIDs)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTourNotFound
	}
	return created, err
}

func (s *Service) verifyTour(ctx context.Context, tourID int) error {
	if _, err := s.tours.GetByID(ctx, tourID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTourNotFound
		}
		return fmt.Errorf("load tour %d: %w", tourID, err)
	}
	return nil
}

func checkScore(score int) error {
	if score < domain.MinScore || score > domain.MaxScore {
		return fmt.Errorf("%w: %d not in %d..%d", ErrInvalidScore, score, domain.MinScore, domain.MaxScore)
	}
	return nil
}
