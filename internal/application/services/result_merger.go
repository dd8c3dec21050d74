package services

import (
	"fmt"
	"sort"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
)

// TopResultsLimit is the number of restaurants highlighted as top3.
const TopResultsLimit = 3

// MergeOutcome holds merged restaurants and the join problems found on the way.
type MergeOutcome struct {
	Restaurants []*entities.Restaurant
	Warnings    []entities.Warning
}

// MergeResults builds one Restaurant per score, joined to its detail and
// candidate by identifier. Scores that match neither are dropped. Details
// that received no score are reported as unscored. Restaurants are returned
// in score order; call SortRestaurants to rank them.
func MergeResults(scores []entities.QualityScore, details []*entities.PlaceDetail, candidates []*entities.Place) *MergeOutcome {
	detailByID := make(map[string]*entities.PlaceDetail, len(details))
	for _, d := range details {
		if d != nil {
			detailByID[d.PlaceID] = d
		}
	}
	candidateByID := make(map[string]*entities.Place, len(candidates))
	for _, c := range candidates {
		if c != nil {
			candidateByID[c.PlaceID] = c
		}
	}

	outcome := &MergeOutcome{Restaurants: make([]*entities.Restaurant, 0, len(scores))}
	scored := make(map[string]bool, len(scores))

	for _, score := range scores {
		detail := detailByID[score.ID]
		place := candidateByID[score.ID]
		if detail == nil && place == nil {
			outcome.Warnings = append(outcome.Warnings, entities.Warning{
				Kind:    entities.WarningScoreOrphaned,
				ID:      score.ID,
				Message: fmt.Sprintf("score for %q matches no fetched restaurant", score.Name),
			})
			continue
		}
		scored[score.ID] = true

		restaurant := &entities.Restaurant{
			ID:     score.ID,
			Name:   resolveName(detail, place, score),
			Detail: detail,
			Place:  place,
			AI: entities.AIAssessment{
				Score:    score.Score,
				Reason:   score.Reason,
				BestDish: score.BestDish,
			},
		}
		if place != nil {
			restaurant.BayesianRating = place.BayesianRating
		}
		outcome.Restaurants = append(outcome.Restaurants, restaurant)
	}

	for _, d := range details {
		if d == nil || scored[d.PlaceID] {
			continue
		}
		outcome.Warnings = append(outcome.Warnings, entities.Warning{
			Kind:    entities.WarningUnscored,
			ID:      d.PlaceID,
			Message: "scoring service returned no score for this restaurant",
		})
	}
	return outcome
}

func resolveName(detail *entities.PlaceDetail, place *entities.Place, score entities.QualityScore) string {
	if detail != nil && detail.Name != "" {
		return detail.Name
	}
	if place != nil && place.Name != "" {
		return place.Name
	}
	return score.Name
}

// SortRestaurants orders restaurants by quality score, then smoothed
// popularity, then raw rating, all descending. Absent values count as 0 and
// full ties keep their input order.
func SortRestaurants(restaurants []*entities.Restaurant) {
	sort.SliceStable(restaurants, func(i, j int) bool {
		a, b := restaurants[i], restaurants[j]
		if a.AI.Score != b.AI.Score {
			return a.AI.Score > b.AI.Score
		}
		if a.PopularityOrZero() != b.PopularityOrZero() {
			return a.PopularityOrZero() > b.PopularityOrZero()
		}
		return a.RawRating() > b.RawRating()
	})
}

// TopRestaurants returns the first TopResultsLimit restaurants.
func TopRestaurants(restaurants []*entities.Restaurant) []*entities.Restaurant {
	if len(restaurants) > TopResultsLimit {
		return restaurants[:TopResultsLimit]
	}
	return restaurants
}
