package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zatekoja/nearbydining/internal/domain/entities"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	"github.com/zatekoja/nearbydining/internal/infrastructure/observability"
	"github.com/zatekoja/nearbydining/internal/loaders"
	apperrors "github.com/zatekoja/nearbydining/pkg/errors"
	"github.com/zatekoja/nearbydining/pkg/retry"
)

// DetailFetchResult holds the details that were fetched, in submission order,
// and a warning for every place whose lookup failed.
type DetailFetchResult struct {
	Details  []*entities.PlaceDetail
	Warnings []entities.Warning
}

// DetailFetcher looks up the details of the top candidates concurrently.
type DetailFetcher struct {
	places     providers.PlacesProvider
	timeout    time.Duration
	minSuccess int
	retryCfg   retry.Config
}

// NewDetailFetcher creates a new detail fetcher. Each lookup attempt is bounded
// by timeout; the batch fails when fewer than minSuccess lookups succeed.
func NewDetailFetcher(places providers.PlacesProvider, timeout time.Duration, minSuccess int, retryCfg retry.Config) *DetailFetcher {
	if minSuccess < 1 {
		minSuccess = 1
	}
	return &DetailFetcher{
		places:     places,
		timeout:    timeout,
		minSuccess: minSuccess,
		retryCfg:   retryCfg,
	}
}

// FetchDetails fetches the detail of every candidate. Failed lookups are
// dropped and reported as warnings as long as enough lookups succeed.
func (f *DetailFetcher) FetchDetails(ctx context.Context, candidates []*entities.Place) (*DetailFetchResult, error) {
	result := &DetailFetchResult{}
	if len(candidates) == 0 {
		return result, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.PlaceID
	}

	loader := loaders.NewDetailLoader(f.fetchOne, len(ids))
	details, errs := loader.LoadAll(ctx, ids)

	var failures []error
	for i, id := range ids {
		if errs[i] != nil {
			failures = append(failures, fmt.Errorf("place %s: %w", id, errs[i]))
			result.Warnings = append(result.Warnings, entities.Warning{
				Kind:    entities.WarningDetailFailed,
				ID:      id,
				Message: errs[i].Error(),
			})
			continue
		}
		result.Details = append(result.Details, details[i])
	}

	required := min(f.minSuccess, len(ids))
	if len(result.Details) < required {
		return nil, apperrors.NewUpstreamError(
			apperrors.StageDetails,
			fmt.Sprintf("only %d of %d place details could be fetched", len(result.Details), len(ids)),
			errors.Join(failures...),
		)
	}

	if len(failures) > 0 {
		observability.LoggerFromContext(ctx).Warn().
			Int("failed", len(failures)).
			Int("fetched", len(result.Details)).
			Msg("continuing with partial place details")
	}
	return result, nil
}

func (f *DetailFetcher) fetchOne(ctx context.Context, placeID string) (*entities.PlaceDetail, error) {
	logger := observability.LoggerFromContext(ctx)

	var detail *entities.PlaceDetail
	err := retry.DoWithLog(ctx, f.retryCfg, "place details", func() error {
		callCtx := ctx
		if f.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}

		d, err := f.places.PlaceDetails(callCtx, placeID)
		if err != nil {
			return err
		}
		detail = d
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).
			Str("place_id", placeID).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Msg("place details lookup failed, retrying")
	})
	if err != nil {
		return nil, err
	}

	if detail != nil && detail.PlaceID != placeID {
		// results are joined by the identifier that was requested
		cp := *detail
		cp.PlaceID = placeID
		detail = &cp
	}
	return detail, nil
}
