package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/nearbydining/internal/domain/entities"
	apperrors "github.com/zatekoja/nearbydining/pkg/errors"
)

type stubRanker struct {
	called   bool
	lat, lng float64
	result   *entities.RankingResult
	err      error
}

func (s *stubRanker) Rank(ctx context.Context, lat, lng float64) (*entities.RankingResult, error) {
	s.called = true
	s.lat, s.lng = lat, lng
	return s.result, s.err
}

func TestGetRestaurants_Success(t *testing.T) {
	rating := 4.6
	ranker := &stubRanker{result: &entities.RankingResult{
		Top3: []*entities.Restaurant{{ID: "p1", Name: "Trattoria", AI: entities.AIAssessment{Score: 4.8, Reason: "handmade pasta", BestDish: "cacio e pepe"}}},
		TopByGoogleRatings: []*entities.Place{{PlaceID: "p1", Name: "Trattoria", Rating: &rating}},
		Scores:             []json.RawMessage{json.RawMessage(`{"id":"p1","name":"Trattoria","score":4.8,"reason":"handmade pasta","bestDish":"cacio e pepe"}`)},
		Lat:                44.4268,
		Lng:                26.1025,
		PromptVersion:      "restaurant-quality/v1",
		Warnings:           []entities.Warning{},
	}}
	handler := NewRestaurantHandler(ranker)

	req := httptest.NewRequest(http.MethodGet, "/api/restaurants?lat=44.4268&lng=26.1025", nil)
	rec := httptest.NewRecorder()
	handler.GetRestaurants(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, 44.4268, ranker.lat)
	assert.Equal(t, 26.1025, ranker.lng)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"top3", "topByGoogleRatings", "restaurants", "scores", "details", "places", "lat", "lng", "promptVersion", "warnings"} {
		assert.Contains(t, body, key)
	}
	top := body["top3"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "cacio e pepe", top["ai"].(map[string]interface{})["bestDish"])
	score := body["scores"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "p1", score["id"])
	assert.Equal(t, []interface{}{}, body["warnings"])
}

func TestGetRestaurants_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing both", query: ""},
		{name: "missing lng", query: "lat=10"},
		{name: "not a number", query: "lat=abc&lng=10"},
		{name: "nan", query: "lat=NaN&lng=10"},
		{name: "infinite", query: "lat=10&lng=Inf"},
		{name: "latitude out of range", query: "lat=90.5&lng=10"},
		{name: "longitude out of range", query: "lat=10&lng=-181"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker := &stubRanker{}
			handler := NewRestaurantHandler(ranker)

			req := httptest.NewRequest(http.MethodGet, "/api/restaurants?"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.GetRestaurants(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, ranker.called, "no upstream call on invalid input")

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetRestaurants_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: apperrors.NewNotFoundError("no open restaurants found near this location"), status: http.StatusNotFound, message: "no open restaurants found near this location"},
		{name: "search", err: apperrors.NewUpstreamError(apperrors.StageSearch, "nearby search failed", errors.New("boom")), status: http.StatusBadGateway, message: "nearby search failed"},
		{name: "scoring", err: apperrors.NewUpstreamError(apperrors.StageScoring, "quality scoring failed", errors.New("bad")), status: http.StatusBadGateway, message: "quality scoring failed"},
		{name: "timeout", err: apperrors.NewUpstreamError(apperrors.StageScoring, "quality scoring failed", context.DeadlineExceeded), status: http.StatusGatewayTimeout, message: "quality scoring failed"},
		{name: "unexpected", err: errors.New("secret internal detail"), status: http.StatusInternalServerError, message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRestaurantHandler(&stubRanker{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/api/restaurants?lat=1&lng=2", nil)
			rec := httptest.NewRecorder()
			handler.GetRestaurants(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
}
