package services

import (
	"sort"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
)

// TopCandidateLimit is the number of candidates enriched and scored per request.
const TopCandidateLimit = 7

// PopularityRanker orders candidates by a Bayesian average of their ratings,
// which pulls places with few ratings towards the batch mean.
type PopularityRanker struct{}

// NewPopularityRanker creates a new popularity ranker
func NewPopularityRanker() *PopularityRanker {
	return &PopularityRanker{}
}

// Rank returns copies of places carrying BayesianRating, sorted by it in
// descending order. Ties keep their search order. The input is not modified.
func (r *PopularityRanker) Rank(places []*entities.Place) []*entities.Place {
	ranked := make([]*entities.Place, 0, len(places))
	for _, p := range places {
		if p == nil {
			continue
		}
		cp := *p
		ranked = append(ranked, &cp)
	}
	if len(ranked) == 0 {
		return ranked
	}

	c := batchMean(ranked)
	m := float64(medianCount(ranked))
	for _, p := range ranked {
		smoothed := BayesianAverage(p.RatingOrZero(), float64(p.RatingsCountOrZero()), c, m)
		p.BayesianRating = &smoothed
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].BayesianRating > *ranked[j].BayesianRating
	})
	return ranked
}

// Top ranks places and keeps the first TopCandidateLimit.
func (r *PopularityRanker) Top(places []*entities.Place) []*entities.Place {
	ranked := r.Rank(places)
	if len(ranked) > TopCandidateLimit {
		ranked = ranked[:TopCandidateLimit]
	}
	return ranked
}

// BayesianAverage smooths rating over n ratings towards the prior mean c with
// weight m. With no evidence at all (n+m == 0) the raw rating is returned.
func BayesianAverage(rating, n, c, m float64) float64 {
	if n+m == 0 {
		return rating
	}
	return (rating*n + c*m) / (n + m)
}

// batchMean is the count-weighted mean rating of the batch. It is only
// consulted when some count is positive, so the zero-total case returns 0.
func batchMean(places []*entities.Place) float64 {
	var sum, total float64
	for _, p := range places {
		n := float64(p.RatingsCountOrZero())
		sum += p.RatingOrZero() * n
		total += n
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// medianCount returns the upper median of the rating counts.
func medianCount(places []*entities.Place) int {
	counts := make([]int, len(places))
	for i, p := range places {
		counts[i] = p.RatingsCountOrZero()
	}
	sort.Ints(counts)
	return counts[len(counts)/2]
}
