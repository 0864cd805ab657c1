// Package recommend turns per-tour rating aggregates into ranked, size-bounded
// recommendation lists.
//
// Ranking is owned by the Accessor: average score descending, review count
// descending, title ascending. The Engine validates the page size, asks the
// accessor for exactly one page and maps it 1:1 without re-sorting.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
	"github.com/Clark-Hu/tour-ratings/internal/metrics"
)

// ErrInvalidArgument is returned for a non-positive page size.
var ErrInvalidArgument = errors.New("recommend: invalid argument")

// Accessor produces ranked tour aggregates. Implementations return at most
// limit rows, an empty slice when nothing qualifies, and never retry.
type Accessor interface {
	TopAggregates(ctx context.Context, limit int) ([]domain.TourAggregate, error)
	AggregatesExcludingCustomer(ctx context.Context, customerID, limit int) ([]domain.TourAggregate, error)
}

const (
	kindTop      = "top"
	kindCustomer = "customer"
)

// Engine serves recommendations. It keeps no state besides the accessor and is
// safe for concurrent use.
type Engine struct {
	accessor Accessor
}

// NewEngine returns an Engine reading from accessor.
func NewEngine(accessor Accessor) *Engine {
	return &Engine{accessor: accessor}
}

// RecommendTopN returns up to limit tours across all customers.
func (e *Engine) RecommendTopN(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	return e.recommend(kindTop, limit, func() ([]domain.TourAggregate, error) {
		return e.accessor.TopAggregates(ctx, limit)
	})
}

// RecommendForCustomer returns up to limit tours the customer has not rated yet.
func (e *Engine) RecommendForCustomer(ctx context.Context, customerID, limit int) ([]domain.Recommendation, error) {
	return e.recommend(kindCustomer, limit, func() ([]domain.TourAggregate, error) {
		return e.accessor.AggregatesExcludingCustomer(ctx, customerID, limit)
	})
}

// recommend validates limit, runs fetch once and maps its rows. Store errors
// are returned as-is.
func (e *Engine) recommend(kind string, limit int, fetch func() ([]domain.TourAggregate, error)) ([]domain.Recommendation, error) {
	start := time.Now()
	if limit < 1 {
		metrics.RecordRecommendation(kind, metrics.OutcomeInvalid, 0, time.Since(start))
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}

	rows, err := fetch()
	if err != nil {
		metrics.RecordRecommendation(kind, metrics.OutcomeError, 0, time.Since(start))
		return nil, err
	}

	out := make([]domain.Recommendation, 0, min(len(rows), limit))
	for _, row := range rows {
		if len(out) == limit {
			break
		}
		out = append(out, domain.Recommendation{
			TourID:       row.TourID,
			Title:        row.Title,
			AverageScore: row.AverageScore,
			ReviewCount:  row.ReviewCount,
		})
	}

	metrics.RecordRecommendation(kind, metrics.OutcomeOK, len(out), time.Since(start))
	return out, nil
}
