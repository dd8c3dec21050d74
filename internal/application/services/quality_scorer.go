package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	apperrors "github.com/zatekoja/nearbydining/pkg/errors"
)

// ScoringOutcome is the validated result of one scoring call.
type ScoringOutcome struct {
	// Raw holds every record exactly as the scoring service returned it.
	Raw      []json.RawMessage
	Accepted []entities.QualityScore
	Warnings []entities.Warning
}

// QualityScorer submits the prompt and validates the returned records
// against the identifiers that were submitted.
type QualityScorer struct {
	provider providers.QualityScoringProvider
	timeout  time.Duration
}

// NewQualityScorer creates a new quality scorer
func NewQualityScorer(provider providers.QualityScoringProvider, timeout time.Duration) *QualityScorer {
	return &QualityScorer{
		provider: provider,
		timeout:  timeout,
	}
}

// scoreRecord mirrors QualityScore with every field optional so that missing
// fields can be told apart from zero values.
type scoreRecord struct {
	ID       *string  `json:"id"`
	Name     *string  `json:"name"`
	Score    *float64 `json:"score"`
	Reason   *string  `json:"reason"`
	BestDish *string  `json:"bestDish"`
}

// Score calls the scoring service once. It is not retried.
func (s *QualityScorer) Score(ctx context.Context, prompt string, submittedIDs []string) (*ScoringOutcome, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.provider.ScoreRestaurants(ctx, prompt)
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.StageScoring, "quality scoring failed", err)
	}

	outcome := ValidateScores(raw, submittedIDs)
	if len(outcome.Accepted) == 0 {
		return nil, apperrors.NewUpstreamError(
			apperrors.StageScoring,
			fmt.Sprintf("scoring service returned no usable records (%d received)", len(raw)),
			errors.New("no accepted score records"),
		)
	}
	return outcome, nil
}

// ValidateScores decodes raw records and sorts them into accepted and
// rejected ones. A record is rejected when it cannot be decoded, misses
// id, name, score or reason, or repeats an earlier id. A record whose id
// was not submitted is reported as orphaned. Nothing is coerced.
func ValidateScores(raw []json.RawMessage, submittedIDs []string) *ScoringOutcome {
	submitted := make(map[string]bool, len(submittedIDs))
	for _, id := range submittedIDs {
		submitted[id] = true
	}

	outcome := &ScoringOutcome{Raw: raw}
	seen := make(map[string]bool, len(raw))

	for i, data := range raw {
		var rec scoreRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			outcome.reject("", fmt.Sprintf("record %d could not be decoded: %v", i, err))
			continue
		}

		id := ""
		if rec.ID != nil {
			id = *rec.ID
		}
		if missing := rec.missingFields(); len(missing) > 0 {
			outcome.reject(id, fmt.Sprintf("record %d is missing %s", i, strings.Join(missing, ", ")))
			continue
		}
		if seen[id] {
			outcome.reject(id, fmt.Sprintf("record %d repeats id %s", i, id))
			continue
		}
		seen[id] = true

		if !submitted[id] {
			outcome.Warnings = append(outcome.Warnings, entities.Warning{
				Kind:    entities.WarningScoreOrphaned,
				ID:      id,
				Message: fmt.Sprintf("score for %q references a restaurant that was not submitted", *rec.Name),
			})
			continue
		}

		score := entities.QualityScore{
			ID:     id,
			Name:   *rec.Name,
			Score:  *rec.Score,
			Reason: *rec.Reason,
		}
		if rec.BestDish != nil {
			score.BestDish = *rec.BestDish
		}
		outcome.Accepted = append(outcome.Accepted, score)
	}
	return outcome
}

func (r scoreRecord) missingFields() []string {
	var missing []string
	if r.ID == nil || strings.TrimSpace(*r.ID) == "" {
		missing = append(missing, "id")
	}
	if r.Name == nil {
		missing = append(missing, "name")
	}
	if r.Score == nil {
		missing = append(missing, "score")
	}
	if r.Reason == nil {
		missing = append(missing, "reason")
	}
	return missing
}

func (o *ScoringOutcome) reject(id, message string) {
	o.Warnings = append(o.Warnings, entities.Warning{
		Kind:    entities.WarningScoreRejected,
		ID:      id,
		Message: message,
	})
}
