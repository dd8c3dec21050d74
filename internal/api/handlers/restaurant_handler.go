package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/nearbydining/internal/application/services"
	"github.com/zatekoja/nearbydining/internal/domain/entities"
	apperrors "github.com/zatekoja/nearbydining/pkg/errors"
)

// RestaurantRanker ranks the restaurants around a point.
type RestaurantRanker interface {
	Rank(ctx context.Context, lat, lng float64) (*entities.RankingResult, error)
}

// RestaurantHandler handles restaurant ranking requests
type RestaurantHandler struct {
	service RestaurantRanker
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(service RestaurantRanker) *RestaurantHandler {
	return &RestaurantHandler{service: service}
}

// GetRestaurants handles GET /api/restaurants?lat=&lng=
func (h *RestaurantHandler) GetRestaurants(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	lat, err := parseCoordinate(r, "lat")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	lng, err := parseCoordinate(r, "lng")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := services.ValidateCoordinates(lat, lng); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.Rank(r.Context(), lat, lng)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func parseCoordinate(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, apperrors.NewValidationError(name + " query parameter is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name + " must be a number")
	}
	return value, nil
}
