package entities

// DetailFields is the fixed field set requested for every place detail lookup.
var DetailFields = []string{
	"place_id",
	"name",
	"editorial_summary",
	"reviews",
	"serves_beer",
	"serves_breakfast",
	"serves_dinner",
	"serves_wine",
	"url",
	"user_ratings_total",
	"rating",
}

// Review is a single user review attached to a place detail.
type Review struct {
	AuthorName              string   `json:"author_name,omitempty"`
	Rating                  *float64 `json:"rating,omitempty"`
	Text                    string   `json:"text,omitempty"`
	RelativeTimeDescription string   `json:"relative_time_description,omitempty"`
	Time                    int64    `json:"time,omitempty"`
	Language                string   `json:"language,omitempty"`
}

// EditorialSummary is the provider's short description of a place.
type EditorialSummary struct {
	Overview string `json:"overview,omitempty"`
	Language string `json:"language,omitempty"`
}

// PlaceDetail holds the enriched metadata of a top-ranked candidate.
type PlaceDetail struct {
	PlaceID          string            `json:"place_id"`
	Name             string            `json:"name,omitempty"`
	Rating           *float64          `json:"rating,omitempty"`
	UserRatingsTotal *int              `json:"user_ratings_total,omitempty"`
	Reviews          []Review          `json:"reviews,omitempty"`
	EditorialSummary *EditorialSummary `json:"editorial_summary,omitempty"`
	ServesBreakfast  *bool             `json:"serves_breakfast,omitempty"`
	ServesDinner     *bool             `json:"serves_dinner,omitempty"`
	ServesBeer       *bool             `json:"serves_beer,omitempty"`
	ServesWine       *bool             `json:"serves_wine,omitempty"`
	URL              string            `json:"url,omitempty"`
}

// Overview returns the editorial summary text, or "" when absent.
func (d *PlaceDetail) Overview() string {
	if d == nil || d.EditorialSummary == nil {
		return ""
	}
	return d.EditorialSummary.Overview
}
