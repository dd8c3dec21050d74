package loaders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/zatekoja/nearbydining/internal/domain/entities"
)

// DetailFetchFunc fetches the detail record of a single place.
type DetailFetchFunc func(ctx context.Context, placeID string) (*entities.PlaceDetail, error)

// DetailLoader batches detail lookups for one ranking request.
type DetailLoader struct {
	loader *dataloader.Loader[string, *entities.PlaceDetail]
}

// NewDetailLoader creates a loader whose batches fetch every key concurrently.
// A loader must not outlive the request it was created for.
func NewDetailLoader(fetch DetailFetchFunc, batchCapacity int) *DetailLoader {
	if batchCapacity < 1 {
		batchCapacity = 1
	}
	return &DetailLoader{
		loader: dataloader.NewBatchedLoader(
			batchFunc(fetch),
			dataloader.WithBatchCapacity[string, *entities.PlaceDetail](batchCapacity),
			dataloader.WithWait[string, *entities.PlaceDetail](time.Millisecond),
		),
	}
}

func batchFunc(fetch DetailFetchFunc) dataloader.BatchFunc[string, *entities.PlaceDetail] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*entities.PlaceDetail] {
		results := make([]*dataloader.Result[*entities.PlaceDetail], len(keys))

		var wg sync.WaitGroup
		for i, key := range keys {
			wg.Add(1)
			go func(i int, key string) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						results[i] = &dataloader.Result[*entities.PlaceDetail]{Error: fmt.Errorf("detail fetch for %s panicked: %v", key, r)}
					}
				}()

				detail, err := fetch(ctx, key)
				if err == nil && detail == nil {
					err = fmt.Errorf("place %s returned no detail", key)
				}
				results[i] = &dataloader.Result[*entities.PlaceDetail]{Data: detail, Error: err}
			}(i, key)
		}
		wg.Wait()

		return results
	}
}

// LoadAll fetches the details of ids. Both returned slices are aligned with
// ids; exactly one of details[i] and errs[i] is non-nil.
func (l *DetailLoader) LoadAll(ctx context.Context, ids []string) ([]*entities.PlaceDetail, []error) {
	details, errs := l.loader.LoadMany(ctx, ids)()

	aligned := make([]error, len(ids))
	copy(aligned, errs)
	if len(details) < len(ids) {
		padded := make([]*entities.PlaceDetail, len(ids))
		copy(padded, details)
		details = padded
	}
	for i := range ids {
		if aligned[i] == nil && details[i] == nil {
			aligned[i] = fmt.Errorf("place %s returned no detail", ids[i])
		}
		if aligned[i] != nil {
			details[i] = nil
		}
	}
	return details, aligned
}
