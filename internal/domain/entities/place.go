package entities

// Location is a latitude/longitude pair as returned by the places provider.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps the position of a place.
type Geometry struct {
	Location Location `json:"location"`
}

// Place is a candidate returned by the nearby search.
// Rating and UserRatingsTotal are nil when the provider omits them.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	Geometry         Geometry `json:"geometry"`
	Icon             string   `json:"icon,omitempty"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Types            []string `json:"types,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	PriceLevel       *int     `json:"price_level,omitempty"`

	// BayesianRating is attached by the popularity ranker.
	BayesianRating *float64 `json:"bayesianRating,omitempty"`
}

// RatingOrZero returns the raw rating, treating an absent rating as 0.
func (p *Place) RatingOrZero() float64 {
	if p == nil || p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// RatingsCountOrZero returns the number of ratings, treating an absent count as 0.
func (p *Place) RatingsCountOrZero() int {
	if p == nil || p.UserRatingsTotal == nil || *p.UserRatingsTotal < 0 {
		return 0
	}
	return *p.UserRatingsTotal
}
