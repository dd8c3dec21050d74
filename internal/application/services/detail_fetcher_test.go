package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/nearbydining/internal/domain/entities"
	"github.com/zatekoja/nearbydining/internal/domain/providers"
	apperrors "github.com/zatekoja/nearbydining/pkg/errors"
	"github.com/zatekoja/nearbydining/pkg/retry"
)

type stubPlacesProvider struct {
	mu          sync.Mutex
	places      []*entities.Place
	searchErr   error
	details     map[string]*entities.PlaceDetail
	detailErrs  map[string]error
	detailDelay map[string]time.Duration
	calls       map[string]int
}

func (s *stubPlacesProvider) NearbySearch(ctx context.Context, center providers.Coordinates) ([]*entities.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls["search"]++
	return s.places, s.searchErr
}

func (s *stubPlacesProvider) PlaceDetails(ctx context.Context, placeID string) (*entities.PlaceDetail, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[placeID]++
	delay := s.detailDelay[placeID]
	err := s.detailErrs[placeID]
	detail := s.details[placeID]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, retry.Permanent(providers.ErrPlaceNotFound)
	}
	return detail, nil
}

func (s *stubPlacesProvider) callCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func fastRetry(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func candidatesFor(ids ...string) []*entities.Place {
	out := make([]*entities.Place, len(ids))
	for i, id := range ids {
		out[i] = &entities.Place{PlaceID: id, Name: "Place " + id}
	}
	return out
}

func detailsFor(ids ...string) map[string]*entities.PlaceDetail {
	out := make(map[string]*entities.PlaceDetail, len(ids))
	for _, id := range ids {
		out[id] = &entities.PlaceDetail{PlaceID: id, Name: "Detail " + id}
	}
	return out
}

func TestDetailFetcher_AllSucceed(t *testing.T) {
	stub := &stubPlacesProvider{details: detailsFor("a", "b", "c")}
	fetcher := NewDetailFetcher(stub, time.Second, 3, fastRetry(1))

	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("c", "a", "b"))
	require.NoError(t, err)
	require.Len(t, result.Details, 3)
	assert.Equal(t, "c", result.Details[0].PlaceID)
	assert.Equal(t, "a", result.Details[1].PlaceID)
	assert.Equal(t, "b", result.Details[2].PlaceID)
	assert.Empty(t, result.Warnings)
}

func TestDetailFetcher_IsolatesFailures(t *testing.T) {
	stub := &stubPlacesProvider{details: detailsFor("a", "b", "c", "d")}
	fetcher := NewDetailFetcher(stub, time.Second, 3, fastRetry(2))

	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("a", "b", "gone", "c", "d"))
	require.NoError(t, err)
	require.Len(t, result.Details, 4)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, entities.WarningDetailFailed, result.Warnings[0].Kind)
	assert.Equal(t, "gone", result.Warnings[0].ID)
	assert.Equal(t, 1, stub.callCount("gone"), "permanent errors are not retried")
}

func TestDetailFetcher_RetriesTransientErrors(t *testing.T) {
	stub := &stubPlacesProvider{
		details:    detailsFor("a"),
		detailErrs: map[string]error{"flaky": errors.New("503")},
	}
	fetcher := NewDetailFetcher(stub, time.Second, 1, fastRetry(3))

	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("a", "flaky"))
	require.NoError(t, err)
	assert.Len(t, result.Details, 1)
	assert.Equal(t, 3, stub.callCount("flaky"))
}

func TestDetailFetcher_BelowMinimumFails(t *testing.T) {
	stub := &stubPlacesProvider{details: detailsFor("a", "b")}
	fetcher := NewDetailFetcher(stub, time.Second, 3, fastRetry(1))

	_, err := fetcher.FetchDetails(context.Background(), candidatesFor("a", "b", "x", "y"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
	assert.Equal(t, apperrors.StageDetails, apperrors.StageOf(err))
	assert.ErrorIs(t, err, providers.ErrPlaceNotFound)
}

func TestDetailFetcher_MinimumCappedByBatchSize(t *testing.T) {
	stub := &stubPlacesProvider{details: detailsFor("a", "b")}
	fetcher := NewDetailFetcher(stub, time.Second, 3, fastRetry(1))

	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("a", "b"))
	require.NoError(t, err)
	assert.Len(t, result.Details, 2)

	_, err = fetcher.FetchDetails(context.Background(), candidatesFor("a", "missing"))
	assert.Error(t, err)
}

func TestDetailFetcher_PerCallTimeout(t *testing.T) {
	stub := &stubPlacesProvider{
		details:     detailsFor("a", "slow"),
		detailDelay: map[string]time.Duration{"slow": time.Second},
	}
	fetcher := NewDetailFetcher(stub, 20*time.Millisecond, 1, fastRetry(1))

	start := time.Now()
	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("a", "slow"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, result.Details, 1)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "slow", result.Warnings[0].ID)
}

func TestDetailFetcher_ZeroTimeoutMeansNoDeadline(t *testing.T) {
	stub := &stubPlacesProvider{
		details:     detailsFor("a", "b"),
		detailDelay: map[string]time.Duration{"a": 10 * time.Millisecond, "b": 10 * time.Millisecond},
	}
	fetcher := NewDetailFetcher(stub, 0, 2, fastRetry(1))

	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("a", "b"))
	require.NoError(t, err)
	assert.Len(t, result.Details, 2)
	assert.Empty(t, result.Warnings)
}

func TestDetailFetcher_EmptyInput(t *testing.T) {
	fetcher := NewDetailFetcher(&stubPlacesProvider{}, time.Second, 3, fastRetry(1))
	result, err := fetcher.FetchDetails(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Details)
}

func TestDetailFetcher_KeepsRequestedID(t *testing.T) {
	stub := &stubPlacesProvider{details: map[string]*entities.PlaceDetail{
		"old-id": {PlaceID: "new-id", Name: "Moved"},
	}}
	fetcher := NewDetailFetcher(stub, time.Second, 1, fastRetry(1))

	result, err := fetcher.FetchDetails(context.Background(), candidatesFor("old-id"))
	require.NoError(t, err)
	assert.Equal(t, "old-id", result.Details[0].PlaceID)
	assert.Equal(t, "new-id", stub.details["old-id"].PlaceID)
}
