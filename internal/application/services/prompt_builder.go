package services

import (
	"strconv"
	"strings"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
)

// PromptVersion identifies the scoring rubric below. Bump it whenever the
// rubric text or the block layout changes.
const PromptVersion = "restaurant-quality/v1"

const notAvailable = "n/a"

const restaurantQualityRubric = `Score the following restaurants based on their quality of service.
Scores should range between 1 and 5, with higher scores indicating better service. The higher the score, the better the service.
Take into account the restaurant description and user reviews.
You can use the google rating to break ties, but it should not be the only factor in your score.

Google ratings are on a scale of 1 to 5, with 1 being the lowest and 5 being the highest.
User reviews are on a scale of 1 to 5, with 1 being the lowest and 5 being the highest.

We are looking for restaurants with good food, good service, and good value for money.
We are not looking for restaurants that are part of a hotel or bed and breakfast.

For each restaurant reply with its id, name, score, and reason.
If available in the review, add the best dish (the one with the highest rated review or most reviews).

When giving the score, add a single sentence with the reason for the score.
The reason should be a very short sentence containing the main reason for the score.
Do not use boilerplate text like "Excellent reviews", focus instead on the main atomic reason for the score.
Examples of good reasons:
- score 4.9: good authentic Romanian food
- score 3.8: good food, but slow and grumpy service
Examples of bad reasons:
- Excellent reviews highlight authentic Romanian food, attentive staff, and great value for money. // too verbose
- Generally good reviews for food and service, but notable complaints about slow and grumpy service. // too long, avoid general statements


More examples:
A restaurant with description "Relaxed units with kitchens in an unassuming apartment hotel offering a restaurant."
score: 1.2, reason: not a stand-alone restaurant, it is part of a hotel

Example:
A restaurant with user review "It seems unreal to me how you can't cook decent rice, it was so bad that I had to throw it away" should have
score: 1, the food is incredibly bad

Restaurants:

`

// PromptBuilder renders the scoring request for a batch of restaurants.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build renders the rubric followed by one block per detail, in the given
// order. Candidates fill in name, rating and rating count when the detail
// lacks them. The output depends only on its inputs.
func (b *PromptBuilder) Build(details []*entities.PlaceDetail, candidates []*entities.Place) string {
	byID := make(map[string]*entities.Place, len(candidates))
	for _, c := range candidates {
		if c != nil {
			byID[c.PlaceID] = c
		}
	}

	var sb strings.Builder
	sb.WriteString(restaurantQualityRubric)
	for i, d := range details {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeRestaurantBlock(&sb, d, byID[d.PlaceID])
	}
	return sb.String()
}

func writeRestaurantBlock(sb *strings.Builder, d *entities.PlaceDetail, candidate *entities.Place) {
	name := d.Name
	rating := d.Rating
	count := d.UserRatingsTotal
	if candidate != nil {
		if name == "" {
			name = candidate.Name
		}
		if rating == nil {
			rating = candidate.Rating
		}
		if count == nil {
			count = candidate.UserRatingsTotal
		}
	}

	sb.WriteString("id: " + d.PlaceID + "\n")
	sb.WriteString("name: " + orNotAvailable(name) + "\n")
	sb.WriteString("description: " + orNotAvailable(d.Overview()) + "\n")
	sb.WriteString("google rating: " + formatRating(rating) + " from " + formatCount(count) + " users\n")
	sb.WriteString("user reviews:\n")
	for _, review := range d.Reviews {
		sb.WriteString("- rating " + formatRating(review.Rating) + "/5, review: " + review.Text + "\n")
	}
	sb.WriteString("\n")
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func formatRating(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatCount(v *int) string {
	if v == nil {
		return notAvailable
	}
	return strconv.Itoa(*v)
}
