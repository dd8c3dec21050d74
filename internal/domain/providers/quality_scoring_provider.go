package providers

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrScoringUnauthorized is returned when the scoring service rejects the key.
	ErrScoringUnauthorized = errors.New("scoring provider rejected credentials")

	// ErrMalformedScoringResponse is returned when the structured output does not
	// have the declared top-level shape.
	ErrMalformedScoringResponse = errors.New("malformed scoring response")
)

// QualityScoringProvider submits a scoring prompt to a structured-generation service.
type QualityScoringProvider interface {
	// ScoreRestaurants blocks until the service returns the declared
	// {"scores": [...]} object and yields its records undecoded.
	ScoreRestaurants(ctx context.Context, prompt string) ([]json.RawMessage, error)
}
