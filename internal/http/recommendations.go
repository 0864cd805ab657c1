package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
	"github.com/Clark-Hu/tour-ratings/internal/validation"
)

type recommendationResponse struct {
	TourID       int     `json:"tourId"`
	Title        string  `json:"title"`
	AverageScore float64 `json:"averageScore"`
	ReviewCount  int64   `json:"reviewCount"`
}

type recommendationListResponse struct {
	Items []recommendationResponse `json:"items"`
}

func toRecommendationList(list []domain.Recommendation) recommendationListResponse {
	items := make([]recommendationResponse, 0, len(list))
	for _, rec := range list {
		items = append(items, recommendationResponse{
			TourID:       rec.TourID,
			Title:        rec.Title,
			AverageScore: rec.AverageScore,
			ReviewCount:  rec.ReviewCount,
		})
	}
	return recommendationListResponse{Items: items}
}

// parseLimit reads ?limit=. A missing value yields def. Values below 1 are
// passed through so the engine can reject them.
func parseLimit(query url.Values, def int) (int, error) {
	raw := strings.TrimSpace(query.Get("limit"))
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit value")
	}
	return limit, nil
}

// limit parses and bounds ?limit=, writing the error response itself.
func (s *Server) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit, err := parseLimit(r.URL.Query(), s.cfg.DefaultPageSize)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return 0, false
	}
	if verr := validation.ValidateVar("limit", limit, fmt.Sprintf("max=%d", s.cfg.MaxPageSize)); verr != nil {
		s.respondValidation(w, verr)
		return 0, false
	}
	return limit, true
}

func (s *Server) handleTopRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	list, err := s.recommender.RecommendTopN(r.Context(), limit)
	if err != nil {
		s.respondServiceError(w, r, err, "compute recommendations")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecommendationList(list))
}

func (s *Server) handleCustomerRecommendations(w http.ResponseWriter, r *http.Request) {
	customerID, err := positiveIntParam(r, "customerId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	list, err := s.recommender.RecommendForCustomer(r.Context(), customerID, limit)
	if err != nil {
		s.respondServiceError(w, r, err, "compute recommendations")
		return
	}
	s.respondJSON(w, http.StatusOK, toRecommendationList(list))
}
