package entities

// QualityScore is one record of the scoring service's structured output.
// Name is advisory; records are joined to places by ID only.
type QualityScore struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	BestDish string  `json:"bestDish"`
}

// AIAssessment is the quality assessment attached to a Restaurant.
type AIAssessment struct {
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	BestDish string  `json:"bestDish"`
}
