package entities

import "encoding/json"

// Restaurant is the merge of a candidate, its detail and its quality score.
// ID is the join key across all three; Detail or Place may be nil.
type Restaurant struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Detail         *PlaceDetail `json:"detail,omitempty"`
	Place          *Place       `json:"place,omitempty"`
	AI             AIAssessment `json:"ai"`
	BayesianRating *float64     `json:"bayesianRating,omitempty"`
}

// RawRating returns the detail rating, falling back to the candidate rating, or 0.
func (r *Restaurant) RawRating() float64 {
	if r.Detail != nil && r.Detail.Rating != nil {
		return *r.Detail.Rating
	}
	return r.Place.RatingOrZero()
}

// PopularityOrZero returns the smoothed popularity, treating an absent value as 0.
func (r *Restaurant) PopularityOrZero() float64 {
	if r.BayesianRating == nil {
		return 0
	}
	return *r.BayesianRating
}

// WarningKind classifies non-fatal data integrity findings.
type WarningKind string

const (
	WarningDetailFailed  WarningKind = "detail_failed"
	WarningScoreRejected WarningKind = "score_rejected"
	WarningScoreOrphaned WarningKind = "score_orphaned"
	WarningUnscored      WarningKind = "unscored"
)

// Warning reports a dropped or partial entry without failing the request.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	ID      string      `json:"id,omitempty"`
	Message string      `json:"message"`
}

// RankingResult is the full response for one location query.
// Scores holds the scoring service's records exactly as returned.
type RankingResult struct {
	Top3               []*Restaurant     `json:"top3"`
	TopByGoogleRatings []*Place          `json:"topByGoogleRatings"`
	Restaurants        []*Restaurant     `json:"restaurants"`
	Scores             []json.RawMessage `json:"scores"`
	Details            []*PlaceDetail    `json:"details"`
	Places             []*Place          `json:"places"`
	Lat                float64           `json:"lat"`
	Lng                float64           `json:"lng"`
	PromptVersion      string            `json:"promptVersion"`
	Warnings           []Warning         `json:"warnings"`
}
