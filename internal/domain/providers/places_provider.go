package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
)

// NearbySearchRadiusMeters is the fixed search radius around the query point.
const NearbySearchRadiusMeters = 1000

// NearbySearchType restricts the nearby search to dining establishments.
const NearbySearchType = "restaurant"

var (
	// ErrPlacesUnauthorized is returned when the places API rejects the key.
	ErrPlacesUnauthorized = errors.New("places provider rejected credentials")

	// ErrPlaceNotFound is returned when a detail lookup references an unknown place.
	ErrPlaceNotFound = errors.New("place not found")
)

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// PlacesProvider defines the interface for the external places service
type PlacesProvider interface {
	// NearbySearch returns open restaurants within NearbySearchRadiusMeters of center
	NearbySearch(ctx context.Context, center Coordinates) ([]*entities.Place, error)

	// PlaceDetails returns the entities.DetailFields of one place
	PlaceDetails(ctx context.Context, placeID string) (*entities.PlaceDetail, error)
}
