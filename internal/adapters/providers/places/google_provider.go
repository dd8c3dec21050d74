package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	"github.com/zatekoja/nearbydining/pkg/retry"
)

const (
	googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"
	defaultHTTPTimeout  = 10 * time.Second
)

// GoogleProvider implements the PlacesProvider using the Google Places web service.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewGoogleProvider creates a new Google places provider.
func NewGoogleProvider(apiKey string) *GoogleProvider {
	return NewGoogleProviderWithOptions(apiKey, googlePlacesBaseURL, nil)
}

// NewGoogleProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) *GoogleProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googlePlacesBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// NearbySearch returns open restaurants within the fixed radius of center.
func (g *GoogleProvider) NearbySearch(ctx context.Context, center providers.Coordinates) ([]*entities.Place, error) {
	params := url.Values{}
	params.Set("location", formatLatLng(center))
	params.Set("radius", strconv.Itoa(providers.NearbySearchRadiusMeters))
	params.Set("type", providers.NearbySearchType)
	params.Set("opennow", "true")

	var payload googleNearbyResponse
	if err := g.get(ctx, "/nearbysearch/json", params, &payload); err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []*entities.Place{}, nil
	default:
		return nil, statusError("nearby search", payload.Status, payload.ErrorMessage)
	}

	places := make([]*entities.Place, 0, len(payload.Results))
	for _, result := range payload.Results {
		places = append(places, result.toPlace())
	}
	return places, nil
}

// PlaceDetails returns the fixed detail field set of one place.
func (g *GoogleProvider) PlaceDetails(ctx context.Context, placeID string) (*entities.PlaceDetail, error) {
	trimmed := strings.TrimSpace(placeID)
	if trimmed == "" {
		return nil, retry.Permanent(fmt.Errorf("place id is required"))
	}

	params := url.Values{}
	params.Set("place_id", trimmed)
	params.Set("fields", strings.Join(entities.DetailFields, ","))

	var payload googleDetailsResponse
	if err := g.get(ctx, "/details/json", params, &payload); err != nil {
		return nil, fmt.Errorf("place details request failed: %w", err)
	}

	if payload.Status != "OK" {
		return nil, statusError("place details", payload.Status, payload.ErrorMessage)
	}
	if payload.Result == nil {
		return nil, retry.Permanent(fmt.Errorf("place details for %s: %w", trimmed, providers.ErrPlaceNotFound))
	}

	detail := payload.Result.toDetail()
	if detail.PlaceID == "" {
		detail.PlaceID = trimmed
	}
	return detail, nil
}

func (g *GoogleProvider) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if g.apiKey == "" {
		return retry.Permanent(fmt.Errorf("google maps api key is required"))
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps a Places API status to an error; only quota and unknown
// errors are worth retrying.
func statusError(operation, status, message string) error {
	detail := status
	if message != "" {
		detail = status + " - " + message
	}

	switch status {
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return fmt.Errorf("%s failed: %s", operation, detail)
	case "REQUEST_DENIED":
		return retry.Permanent(fmt.Errorf("%s failed: %s: %w", operation, detail, providers.ErrPlacesUnauthorized))
	case "NOT_FOUND", "ZERO_RESULTS":
		return retry.Permanent(fmt.Errorf("%s failed: %s: %w", operation, detail, providers.ErrPlaceNotFound))
	default:
		return retry.Permanent(fmt.Errorf("%s failed: %s", operation, detail))
	}
}

func formatLatLng(c providers.Coordinates) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

type googleNearbyResponse struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Results      []googleNearbyResult `json:"results"`
}

type googleNearbyResult struct {
	PlaceID          string         `json:"place_id"`
	Name             string         `json:"name"`
	Rating           *float64       `json:"rating"`
	UserRatingsTotal *int           `json:"user_ratings_total"`
	Geometry         googleGeometry `json:"geometry"`
	Icon             string         `json:"icon"`
	Vicinity         string         `json:"vicinity"`
	Types            []string       `json:"types"`
	BusinessStatus   string         `json:"business_status"`
	PriceLevel       *int           `json:"price_level"`
}

func (r googleNearbyResult) toPlace() *entities.Place {
	return &entities.Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		Geometry: entities.Geometry{
			Location: entities.Location{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		},
		Icon:           r.Icon,
		Vicinity:       r.Vicinity,
		Types:          r.Types,
		BusinessStatus: r.BusinessStatus,
		PriceLevel:     r.PriceLevel,
	}
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleDetailsResponse struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Result       *googleDetailsResult `json:"result"`
}

type googleDetailsResult struct {
	PlaceID          string                  `json:"place_id"`
	Name             string                  `json:"name"`
	Rating           *float64                `json:"rating"`
	UserRatingsTotal *int                    `json:"user_ratings_total"`
	Reviews          []googleReview          `json:"reviews"`
	EditorialSummary *googleEditorialSummary `json:"editorial_summary"`
	ServesBreakfast  *bool                   `json:"serves_breakfast"`
	ServesDinner     *bool                   `json:"serves_dinner"`
	ServesBeer       *bool                   `json:"serves_beer"`
	ServesWine       *bool                   `json:"serves_wine"`
	URL              string                  `json:"url"`
}

type googleReview struct {
	AuthorName              string   `json:"author_name"`
	Rating                  *float64 `json:"rating"`
	Text                    string   `json:"text"`
	RelativeTimeDescription string   `json:"relative_time_description"`
	Time                    int64    `json:"time"`
	Language                string   `json:"language"`
}

type googleEditorialSummary struct {
	Overview string `json:"overview"`
	Language string `json:"language"`
}

func (r *googleDetailsResult) toDetail() *entities.PlaceDetail {
	detail := &entities.PlaceDetail{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		ServesBreakfast:  r.ServesBreakfast,
		ServesDinner:     r.ServesDinner,
		ServesBeer:       r.ServesBeer,
		ServesWine:       r.ServesWine,
		URL:              r.URL,
	}
	if r.EditorialSummary != nil {
		detail.EditorialSummary = &entities.EditorialSummary{
			Overview: r.EditorialSummary.Overview,
			Language: r.EditorialSummary.Language,
		}
	}
	for _, review := range r.Reviews {
		detail.Reviews = append(detail.Reviews, entities.Review{
			AuthorName:              review.AuthorName,
			Rating:                  review.Rating,
			Text:                    review.Text,
			RelativeTimeDescription: review.RelativeTimeDescription,
			Time:                    review.Time,
			Language:                review.Language,
		})
	}
	return detail
}
