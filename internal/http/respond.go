package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Clark-Hu/tour-ratings/internal/logging"
	"github.com/Clark-Hu/tour-ratings/internal/ratings"
	"github.com/Clark-Hu/tour-ratings/internal/recommend"
	"github.com/Clark-Hu/tour-ratings/internal/repository"
	"github.com/Clark-Hu/tour-ratings/internal/validation"
)

const maxRequestBody = 1 << 20 // 1 MiB

const (
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeConflict   = "CONFLICT"
	codeInternal   = "INTERNAL_ERROR"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{Code: code, Message: message})
}

func (s *Server) respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	s.respondJSON(w, http.StatusBadRequest, errorResponse{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}

func (s *Server) respondUnauthorized(w http.ResponseWriter, _ *http.Request) {
	s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
}

func (s *Server) respondForbidden(w http.ResponseWriter, _ *http.Request) {
	s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
}

func (s *Server) respondInternal(w http.ResponseWriter, _ *http.Request) {
	s.respondError(w, http.StatusInternalServerError, codeInternal, "Internal server error")
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, codeBadRequest, "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, codeBadRequest, "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, codeBadRequest, "Unable to parse request body")
	}
}

// respondServiceError maps domain errors onto status codes. Anything unknown
// is logged and hidden behind a 500.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, ratings.ErrTourNotFound),
		errors.Is(err, ratings.ErrRatingNotFound),
		errors.Is(err, ratings.ErrNoRatings):
		s.respondError(w, http.StatusNotFound, codeNotFound, "Resource not found")
	case errors.Is(err, repository.ErrConflict):
		s.respondError(w, http.StatusConflict, codeConflict, "Rating already exists for this customer")
	case errors.Is(err, ratings.ErrInvalidScore), errors.Is(err, recommend.ErrInvalidArgument):
		s.respondError(w, http.StatusBadRequest, validation.Code, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("action", action).Msg("request failed")
		s.respondError(w, http.StatusInternalServerError, codeInternal, "Failed to "+action)
	}
}

// positiveIntParam reads a chi URL parameter that must be a positive integer.
func positiveIntParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}
