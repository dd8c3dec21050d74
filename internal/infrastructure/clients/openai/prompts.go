package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/nearbydining/internal/domain/providers"
)

const restaurantScoresSchemaName = "restaurant_scores"

// restaurantScoresSchema is the strict structured-output contract for scoring.
var restaurantScoresSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"scores": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":       map[string]string{"type": "string"},
					"name":     map[string]string{"type": "string"},
					"score":    map[string]string{"type": "number"},
					"reason":   map[string]string{"type": "string"},
					"bestDish": map[string]string{"type": "string"},
				},
				"required":             []string{"id", "name", "score", "reason", "bestDish"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"scores"},
	"additionalProperties": false,
}

type scoresPayload struct {
	Scores *[]json.RawMessage `json:"scores"`
}

// parseScoresPayload extracts the raw score records from the model output.
func parseScoresPayload(data []byte) ([]json.RawMessage, error) {
	cleaned := stripCodeFences(string(data))

	var payload scoresPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse scores payload: %v", providers.ErrMalformedScoringResponse, err)
	}
	if payload.Scores == nil {
		return nil, fmt.Errorf("%w: scores array missing", providers.ErrMalformedScoringResponse)
	}

	// Records are returned as-is, nulls included; validation happens upstream.
	return *payload.Scores, nil
}

// Clean Markdown code blocks if present
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}
