package recommend

import (
	"context"
	"sort"
	"sync"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
)

// Rank aggregates ratings per tour and returns the best limit tours in ranking
// order. When excludeCustomer is non-nil, every tour that customer rated is
// dropped before ranking. Ratings for tours missing from titles are ignored,
// matching the inner join of the SQL accessor.
func Rank(ratings []domain.Rating, titles map[int]string, excludeCustomer *int, limit int) []domain.TourAggregate {
	if limit < 1 {
		return []domain.TourAggregate{}
	}

	excluded := make(map[int]struct{})
	if excludeCustomer != nil {
		for _, r := range ratings {
			if r.CustomerID == *excludeCustomer {
				excluded[r.TourID] = struct{}{}
			}
		}
	}

	type accumulator struct {
		sum   int64
		count int64
	}
	groups := make(map[int]*accumulator)
	for _, r := range ratings {
		if _, skip := excluded[r.TourID]; skip {
			continue
		}
		if _, known := titles[r.TourID]; !known {
			continue
		}
		acc, ok := groups[r.TourID]
		if !ok {
			acc = &accumulator{}
			groups[r.TourID] = acc
		}
		acc.sum += int64(r.Score)
		acc.count++
	}

	out := make([]domain.TourAggregate, 0, len(groups))
	for tourID, acc := range groups {
		out = append(out, domain.TourAggregate{
			TourID:       tourID,
			Title:        titles[tourID],
			AverageScore: float64(acc.sum) / float64(acc.count),
			ReviewCount:  acc.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.TourID < b.TourID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Snapshot is an in-memory Accessor over a fixed set of tours and ratings.
type Snapshot struct {
	mu      sync.RWMutex
	titles  map[int]string
	rated   map[ratingPair]struct{}
	ratings []domain.Rating
}

type ratingPair struct{ tour, customer int }

// NewSnapshot returns an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{titles: make(map[int]string), rated: make(map[ratingPair]struct{})}
}

// AddTour registers a tour title.
func (s *Snapshot) AddTour(id int, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[id] = title
}

// AddRating records a rating. A customer rates a tour at most once, so a
// second rating for the same pair is ignored and AddRating reports false.
func (s *Snapshot) AddRating(r domain.Rating) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingPair{tour: r.TourID, customer: r.CustomerID}
	if _, dup := s.rated[key]; dup {
		return false
	}
	s.rated[key] = struct{}{}
	s.ratings = append(s.ratings, r)
	return true
}

// TopAggregates implements Accessor.
func (s *Snapshot) TopAggregates(_ context.Context, limit int) ([]domain.TourAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Rank(s.ratings, s.titles, nil, limit), nil
}

// AggregatesExcludingCustomer implements Accessor.
func (s *Snapshot) AggregatesExcludingCustomer(_ context.Context, customerID, limit int) ([]domain.TourAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Rank(s.ratings, s.titles, &customerID, limit), nil
}
