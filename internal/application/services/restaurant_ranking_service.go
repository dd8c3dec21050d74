package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	"github.com/zatekoja/nearbydining/internal/infrastructure/observability"
	"github.com/zatekoja/nearbydining/pkg/config"
	apperrors "github.com/zatekoja/nearbydining/pkg/errors"
	"github.com/zatekoja/nearbydining/pkg/retry"
	"go.opentelemetry.io/otel/attribute"
)

// RestaurantRankingService runs the ranking pipeline for one location:
// search, popularity ranking, detail lookup, quality scoring and merge.
type RestaurantRankingService struct {
	places  providers.PlacesProvider
	ranker  *PopularityRanker
	fetcher *DetailFetcher
	prompts *PromptBuilder
	scorer  *QualityScorer
	metrics *observability.PipelineMetrics

	requestTimeout time.Duration
	searchTimeout  time.Duration
	retryCfg       retry.Config
}

// NewRestaurantRankingService creates a new restaurant ranking service
func NewRestaurantRankingService(
	places providers.PlacesProvider,
	scoring providers.QualityScoringProvider,
	cfg config.PipelineConfig,
	metrics *observability.PipelineMetrics,
) *RestaurantRankingService {
	retryCfg := retry.DefaultConfig()
	if cfg.RetryAttempts > 0 {
		retryCfg.MaxAttempts = cfg.RetryAttempts
	}

	return &RestaurantRankingService{
		places:         places,
		ranker:         NewPopularityRanker(),
		fetcher:        NewDetailFetcher(places, cfg.DetailTimeout, cfg.DetailMinSuccess, retryCfg),
		prompts:        NewPromptBuilder(),
		scorer:         NewQualityScorer(scoring, cfg.ScoringTimeout),
		metrics:        metrics,
		requestTimeout: cfg.RequestTimeout,
		searchTimeout:  cfg.SearchTimeout,
		retryCfg:       retryCfg,
	}
}

// ValidateCoordinates checks that lat and lng describe a point on Earth.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return apperrors.NewValidationError("lat must be a number between -90 and 90")
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return apperrors.NewValidationError("lng must be a number between -180 and 180")
	}
	return nil
}

// Rank returns the scored restaurants around lat/lng.
func (s *RestaurantRankingService) Rank(ctx context.Context, lat, lng float64) (result *entities.RankingResult, err error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		s.metrics.IncRequests(string(apperrors.StageInput))
		return nil, err
	}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "restaurants.rank",
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lng", lng),
	)
	defer func() {
		observability.RecordError(span, err)
		span.End()
		s.metrics.IncRequests(requestOutcome(err))
	}()

	// search
	stageCtx, end := s.startStage(ctx, observability.StageSearch)
	places, err := s.search(stageCtx, providers.Coordinates{Latitude: lat, Longitude: lng})
	end(err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCandidates(len(places))
	if len(places) == 0 {
		return nil, apperrors.NewNotFoundError("no open restaurants found near this location")
	}

	// rank
	_, end = s.startStage(ctx, observability.StageRank)
	top := s.ranker.Top(places)
	end(nil)

	// details
	stageCtx, end = s.startStage(ctx, observability.StageDetails)
	fetched, err := s.fetcher.FetchDetails(stageCtx, top)
	end(err)
	if err != nil {
		return nil, err
	}
	s.metrics.AddDetailFailures(len(fetched.Warnings))

	// prompt
	_, end = s.startStage(ctx, observability.StagePrompt)
	prompt := s.prompts.Build(fetched.Details, top)
	submitted := make([]string, len(fetched.Details))
	for i, d := range fetched.Details {
		submitted[i] = d.PlaceID
	}
	end(nil)

	// scoring
	stageCtx, end = s.startStage(ctx, observability.StageScoring)
	scored, err := s.scorer.Score(stageCtx, prompt, submitted)
	end(err)
	if err != nil {
		return nil, err
	}

	// merge
	_, end = s.startStage(ctx, observability.StageMerge)
	merged := MergeResults(scored.Accepted, fetched.Details, top)
	SortRestaurants(merged.Restaurants)
	end(nil)

	warnings := make([]entities.Warning, 0, len(fetched.Warnings)+len(scored.Warnings)+len(merged.Warnings))
	warnings = append(warnings, fetched.Warnings...)
	warnings = append(warnings, scored.Warnings...)
	warnings = append(warnings, merged.Warnings...)
	s.reportWarnings(ctx, warnings)

	return &entities.RankingResult{
		Top3:               TopRestaurants(merged.Restaurants),
		TopByGoogleRatings: top,
		Restaurants:        merged.Restaurants,
		Scores:             scored.Raw,
		Details:            fetched.Details,
		Places:             places,
		Lat:                lat,
		Lng:                lng,
		PromptVersion:      PromptVersion,
		Warnings:           warnings,
	}, nil
}

func (s *RestaurantRankingService) search(ctx context.Context, center providers.Coordinates) ([]*entities.Place, error) {
	logger := observability.LoggerFromContext(ctx)

	var places []*entities.Place
	err := retry.DoWithLog(ctx, s.retryCfg, "nearby search", func() error {
		callCtx := ctx
		if s.searchTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.searchTimeout)
			defer cancel()
		}

		result, err := s.places.NearbySearch(callCtx, center)
		if err != nil {
			return err
		}
		places = result
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("nearby search failed, retrying")
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.StageSearch, "nearby search failed", err)
	}

	seen := make(map[string]bool, len(places))
	filtered := make([]*entities.Place, 0, len(places))
	for _, p := range places {
		if p == nil {
			continue
		}
		if p.PlaceID == "" {
			return nil, apperrors.NewUpstreamError(apperrors.StageSearch, "nearby search returned a place without an id", fmt.Errorf("place %q has no place_id", p.Name))
		}
		if seen[p.PlaceID] {
			return nil, apperrors.NewUpstreamError(apperrors.StageSearch, "nearby search returned duplicate places", fmt.Errorf("duplicate place_id %s", p.PlaceID))
		}
		seen[p.PlaceID] = true
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (s *RestaurantRankingService) startStage(ctx context.Context, stage string) (context.Context, func(error)) {
	ctx, span := observability.StartSpan(ctx, "restaurants."+stage)
	start := time.Now()

	return ctx, func(err error) {
		elapsed := time.Since(start)
		s.metrics.ObserveStage(stage, elapsed.Seconds())
		observability.RecordError(span, err)
		span.End()

		event := observability.LoggerFromContext(ctx).Info()
		if err != nil {
			event = observability.LoggerFromContext(ctx).Warn().Err(err)
		}
		event.Str("stage", stage).Int64("duration_ms", elapsed.Milliseconds()).Msg("pipeline stage finished")
	}
}

func (s *RestaurantRankingService) reportWarnings(ctx context.Context, warnings []entities.Warning) {
	logger := observability.LoggerFromContext(ctx)
	for _, w := range warnings {
		if w.Kind != entities.WarningDetailFailed {
			s.metrics.IncScoreAnomaly(string(w.Kind))
		}
		logger.Warn().Str("kind", string(w.Kind)).Str("place_id", w.ID).Msg(w.Message)
	}
}

func requestOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if stage := apperrors.StageOf(err); stage != "" {
		return string(stage)
	}
	return string(apperrors.TypeOf(err))
}
