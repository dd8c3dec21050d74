package places

import (
	"context"
	"fmt"
	"math"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
)

// MockProvider implements a deterministic places provider for local development
type MockProvider struct{}

// NewMockProvider creates a new mock places provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

type mockFixture struct {
	id       string
	name     string
	rating   float64
	count    int
	dLat     float64
	dLng     float64
	overview string
	reviews  []entities.Review
}

var mockFixtures = []mockFixture{
	{id: "mock-trattoria", name: "Trattoria Nonna", rating: 4.6, count: 812, dLat: 0.002, dLng: 0.001,
		overview: "Family-run trattoria serving handmade pasta.",
		reviews:  []entities.Review{mockReview(5, "The cacio e pepe is the best in town."), mockReview(4, "Great pasta, a bit loud.")}},
	{id: "mock-bistro", name: "Bistro Verde", rating: 4.8, count: 35, dLat: -0.003, dLng: 0.002,
		overview: "Seasonal vegetarian bistro.",
		reviews:  []entities.Review{mockReview(5, "Beetroot tartare was outstanding.")}},
	{id: "mock-grill", name: "Harbour Grill", rating: 4.1, count: 1540, dLat: 0.004, dLng: -0.003,
		reviews: []entities.Review{mockReview(4, "Solid steaks, slow service on weekends."), mockReview(3, "Overpriced wine list.")}},
	{id: "mock-noodle", name: "Noodle Bar 88", rating: 4.4, count: 420, dLat: -0.001, dLng: -0.004,
		reviews: []entities.Review{mockReview(5, "Hand-pulled noodles, cheap and fast.")}},
	{id: "mock-hotel", name: "Grand Hotel Restaurant", rating: 4.3, count: 260, dLat: 0.005, dLng: 0.004,
		overview: "Hotel dining room with buffet breakfast.",
		reviews:  []entities.Review{mockReview(4, "Convenient if you stay at the hotel.")}},
	{id: "mock-taqueria", name: "Taqueria Sol", rating: 4.7, count: 198, dLat: 0.001, dLng: 0.006,
		reviews: []entities.Review{mockReview(5, "Al pastor tacos are incredible.")}},
	{id: "mock-diner", name: "Corner Diner", rating: 3.9, count: 75, dLat: -0.006, dLng: 0.001,
		reviews: []entities.Review{mockReview(2, "It seems unreal to me how you can't cook decent rice.")}},
	{id: "mock-sushi", name: "Sushi Kaito", rating: 4.9, count: 12, dLat: 0.003, dLng: 0.003,
		reviews: []entities.Review{mockReview(5, "Omakase was a revelation.")}},
	{id: "mock-far", name: "Out of Range Cafe", rating: 5.0, count: 900, dLat: 0.05, dLng: 0.05},
}

func mockReview(rating float64, text string) entities.Review {
	return entities.Review{AuthorName: "Local Guide", Rating: &rating, Text: text}
}

// NearbySearch returns the fixtures that fall within the search radius of center
func (m *MockProvider) NearbySearch(ctx context.Context, center providers.Coordinates) ([]*entities.Place, error) {
	places := make([]*entities.Place, 0, len(mockFixtures))
	for _, f := range mockFixtures {
		loc := providers.Coordinates{Latitude: center.Latitude + f.dLat, Longitude: center.Longitude + f.dLng}
		if distanceMeters(center, loc) > providers.NearbySearchRadiusMeters {
			continue
		}
		rating, count := f.rating, f.count
		places = append(places, &entities.Place{
			PlaceID:          f.id,
			Name:             f.name,
			Rating:           &rating,
			UserRatingsTotal: &count,
			Geometry:         entities.Geometry{Location: entities.Location{Lat: loc.Latitude, Lng: loc.Longitude}},
			Types:            []string{providers.NearbySearchType},
			BusinessStatus:   "OPERATIONAL",
		})
	}
	return places, nil
}

// PlaceDetails returns the fixture detail for placeID
func (m *MockProvider) PlaceDetails(ctx context.Context, placeID string) (*entities.PlaceDetail, error) {
	for _, f := range mockFixtures {
		if f.id != placeID {
			continue
		}
		rating, count := f.rating, f.count
		detail := &entities.PlaceDetail{
			PlaceID:          f.id,
			Name:             f.name,
			Rating:           &rating,
			UserRatingsTotal: &count,
			Reviews:          f.reviews,
			URL:              "https://maps.google.com/?cid=" + f.id,
		}
		if f.overview != "" {
			detail.EditorialSummary = &entities.EditorialSummary{Overview: f.overview}
		}
		return detail, nil
	}
	return nil, fmt.Errorf("place %s: %w", placeID, providers.ErrPlaceNotFound)
}

// distanceMeters calculates the distance between two points using the Haversine formula
func distanceMeters(from, to providers.Coordinates) float64 {
	const earthRadiusMeters = 6371000.0

	lat1Rad := toRadians(from.Latitude)
	lat2Rad := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
