package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Clark-Hu/tour-ratings/internal/domain"
	"github.com/Clark-Hu/tour-ratings/internal/validation"
)

type ratingRequest struct {
	Score      int     `json:"score" validate:"min=1,max=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=255"`
	CustomerID int     `json:"customerId" validate:"gt=0"`
}

type ratingPatchRequest struct {
	Score      *int    `json:"score" validate:"omitempty,min=1,max=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=255"`
	CustomerID int     `json:"customerId" validate:"gt=0"`
}

type batchRequest struct {
	Score       int   `json:"score" validate:"min=1,max=5"`
	CustomerIDs []int `json:"customerIds" validate:"min=1,max=1000,dive,gt=0"`
}

type ratingResponse struct {
	Score      int     `json:"score"`
	Comment    *string `json:"comment,omitempty"`
	CustomerID int     `json:"customerId"`
}

type ratingListResponse struct {
	Items []ratingResponse `json:"items"`
}

type averageResponse struct {
	Average float64 `json:"average"`
}

func toRatingResponse(r domain.Rating) ratingResponse {
	return ratingResponse{Score: r.Score, Comment: r.Comment, CustomerID: r.CustomerID}
}

func toRatingList(list []domain.Rating) ratingListResponse {
	items := make([]ratingResponse, 0, len(list))
	for _, r := range list {
		items = append(items, toRatingResponse(r))
	}
	return ratingListResponse{Items: items}
}

func (s *Server) tourID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := positiveIntParam(r, "tourId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	list, err := s.ratings.LookupRatings(r.Context(), tourID)
	if err != nil {
		s.respondServiceError(w, r, err, "list ratings")
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingList(list))
}

func (s *Server) handleAverageScore(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	avg, err := s.ratings.AverageScore(r.Context(), tourID)
	if err != nil {
		s.respondServiceError(w, r, err, "compute average")
		return
	}
	s.respondJSON(w, http.StatusOK, averageResponse{Average: avg})
}

func (s *Server) handleCreateRating(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondValidation(w, verr)
		return
	}

	rating, err := s.ratings.CreateNew(r.Context(), tourID, req.CustomerID, req.Score, normalizeComment(req.Comment))
	if err != nil {
		s.respondServiceError(w, r, err, "create rating")
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/tours/%d/ratings", tourID))
	s.respondJSON(w, http.StatusCreated, toRatingResponse(rating))
}

func (s *Server) handleUpdateRating(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondValidation(w, verr)
		return
	}

	rating, err := s.ratings.Update(r.Context(), tourID, req.CustomerID, req.Score, normalizeComment(req.Comment))
	if err != nil {
		s.respondServiceError(w, r, err, "update rating")
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingResponse(rating))
}

func (s *Server) handlePatchRating(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	var req ratingPatchRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondValidation(w, verr)
		return
	}

	rating, err := s.ratings.UpdateSome(r.Context(), tourID, req.CustomerID, req.Score, patchComment(req.Comment))
	if err != nil {
		s.respondServiceError(w, r, err, "update rating")
		return
	}
	s.respondJSON(w, http.StatusOK, toRatingResponse(rating))
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	customerID, err := positiveIntParam(r, "customerId")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := s.ratings.Delete(r.Context(), tourID, customerID); err != nil {
		s.respondServiceError(w, r, err, "delete rating")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRateMany applies ?score= to every customer id in the JSON array body.
func (s *Server) handleRateMany(w http.ResponseWriter, r *http.Request) {
	tourID, ok := s.tourID(w, r)
	if !ok {
		return
	}
	rawScore := strings.TrimSpace(r.URL.Query().Get("score"))
	if rawScore == "" {
		s.respondError(w, http.StatusBadRequest, codeBadRequest, "score query parameter is required")
		return
	}
	score, err := strconv.Atoi(rawScore)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, codeBadRequest, "invalid score value")
		return
	}

	req := batchRequest{Score: score}
	if err := decodeJSONBody(w, r, &req.CustomerIDs); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondValidation(w, verr)
		return
	}

	created, err := s.ratings.RateMany(r.Context(), tourID, req.Score, req.CustomerIDs)
	if err != nil {
		s.respondServiceError(w, r, err, "create ratings")
		return
	}
	s.respondJSON(w, http.StatusCreated, toRatingList(created))
}

func normalizeComment(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

// patchComment trims a PATCH comment. Nil leaves the stored comment alone and
// a blank value becomes "", which clears it.
func patchComment(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	if normalized := normalizeComment(ptr); normalized != nil {
		return normalized
	}
	cleared := ""
	return &cleared
}
