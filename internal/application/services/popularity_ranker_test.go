package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/nearbydining/internal/domain/entities"
)

func newPlace(id string, rating float64, count int) *entities.Place {
	return &entities.Place{PlaceID: id, Name: "Restaurant " + id, Rating: &rating, UserRatingsTotal: &count}
}

func TestPopularityRanker_ExactValues(t *testing.T) {
	ranker := NewPopularityRanker()
	ranked := ranker.Rank([]*entities.Place{newPlace("p1", 5, 10), newPlace("p2", 1, 100)})

	require.Len(t, ranked, 2)
	assert.Equal(t, "p1", ranked[0].PlaceID)
	assert.InDelta(t, 205.0/121.0, *ranked[0].BayesianRating, 1e-12)
	assert.Equal(t, "p2", ranked[1].PlaceID)
	assert.InDelta(t, 13.0/11.0, *ranked[1].BayesianRating, 1e-12)
}

func TestPopularityRanker_UniformCounts(t *testing.T) {
	ranker := NewPopularityRanker()
	ratings := []float64{4.8, 3.2, 4.1, 2.5}
	places := make([]*entities.Place, len(ratings))
	var mean float64
	for i, r := range ratings {
		places[i] = newPlace(fmt.Sprintf("p%d", i), r, 40)
		mean += r / float64(len(ratings))
	}

	ranked := ranker.Rank(places)
	require.Len(t, ranked, len(ratings))
	for _, p := range ranked {
		// equal counts give m = n, so each rating moves halfway to the batch mean
		assert.InDelta(t, (*p.Rating+mean)/2, *p.BayesianRating, 1e-9)
	}
	assert.Equal(t, []string{"p0", "p2", "p1", "p3"}, placeIDs(ranked))
}

func TestPopularityRanker_EqualRatingsConverge(t *testing.T) {
	ranker := NewPopularityRanker()
	ranked := ranker.Rank([]*entities.Place{newPlace("a", 4.2, 7), newPlace("b", 4.2, 7), newPlace("c", 4.2, 7)})
	for _, p := range ranked {
		assert.InDelta(t, 4.2, *p.BayesianRating, 1e-12)
	}
	assert.Equal(t, []string{"a", "b", "c"}, placeIDs(ranked), "ties keep search order")
}

func TestPopularityRanker_NoRatingsAtAll(t *testing.T) {
	ranker := NewPopularityRanker()
	bare := &entities.Place{PlaceID: "bare", Name: "New Place"}
	ranked := ranker.Rank([]*entities.Place{newPlace("z", 3.5, 0), bare})

	require.Len(t, ranked, 2)
	assert.Equal(t, "z", ranked[0].PlaceID)
	assert.Equal(t, 3.5, *ranked[0].BayesianRating)
	assert.Equal(t, 0.0, *ranked[1].BayesianRating)
}

func TestPopularityRanker_TwoPlacesFewRatingsWins(t *testing.T) {
	ranker := NewPopularityRanker()
	ranked := ranker.Rank([]*entities.Place{newPlace("A", 4.5, 500), newPlace("B", 5.0, 2)})

	// c = 2260/502, m = 500
	require.Len(t, ranked, 2)
	assert.Equal(t, []string{"B", "A"}, placeIDs(ranked))
	assert.InDelta(t, 567510.0/126002.0, *ranked[0].BayesianRating, 1e-9)
	assert.InDelta(t, 1129750.0/251000.0, *ranked[1].BayesianRating, 1e-9)
	assert.InDelta(t, 4.50397, *ranked[0].BayesianRating, 1e-5)
	assert.InDelta(t, 4.50100, *ranked[1].BayesianRating, 1e-5)
}

func TestPopularityRanker_FewRatingsLosesToManyRatings(t *testing.T) {
	ranker := NewPopularityRanker()
	places := []*entities.Place{
		newPlace("A", 4.5, 500),
		newPlace("B", 5.0, 2),
		newPlace("C", 3.0, 100),
		newPlace("D", 3.5, 50),
	}

	ranked := ranker.Rank(places)
	assert.Equal(t, []string{"A", "B", "D", "C"}, placeIDs(ranked))
	assert.InDelta(t, 1740500.0/391200.0, *ranked[0].BayesianRating, 1e-9)
	assert.InDelta(t, 280020.0/66504.0, *ranked[1].BayesianRating, 1e-9)
}

func TestPopularityRanker_TopTruncates(t *testing.T) {
	ranker := NewPopularityRanker()
	places := make([]*entities.Place, 12)
	for i := range places {
		places[i] = newPlace(fmt.Sprintf("p%02d", i), 3+float64(i)/10, 10*(i+1))
	}

	top := ranker.Top(places)
	require.Len(t, top, TopCandidateLimit)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, *top[i-1].BayesianRating, *top[i].BayesianRating)
	}

	assert.Len(t, ranker.Top(places[:3]), 3)
	assert.Empty(t, ranker.Top(nil))
}

func TestPopularityRanker_DoesNotMutateInput(t *testing.T) {
	ranker := NewPopularityRanker()
	input := []*entities.Place{newPlace("x", 4, 3), nil, newPlace("y", 2, 9)}

	ranked := ranker.Rank(input)
	assert.Len(t, ranked, 2)
	assert.Nil(t, input[0].BayesianRating)
	assert.Nil(t, input[2].BayesianRating)
	assert.Equal(t, "x", input[0].PlaceID)
}

func TestBayesianAverage(t *testing.T) {
	assert.Equal(t, 4.0, BayesianAverage(4, 0, 3, 0))
	assert.InDelta(t, 3.5, BayesianAverage(4, 10, 3, 10), 1e-12)
}

func placeIDs(places []*entities.Place) []string {
	ids := make([]string, len(places))
	for i, p := range places {
		ids[i] = p.PlaceID
	}
	return ids
}
