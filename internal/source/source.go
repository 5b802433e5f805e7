// Package source provides the order feed the kitchen coordinator
// drains: a lazy, finite, per-subscription-restartable sequence of
// order descriptions, paced at a configured average rate.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/time/rate"

	"kitchensim/internal/order"
)

// Item is one order description as read from the feed, before the
// kitchen assigns it a process-unique ID.
type Item struct {
	Name      string          `json:"name"`
	Temp      order.Temperature `json:"temp"`
	ShelfLife float64         `json:"shelfLife"`
	DecayRate float64         `json:"decayRate"`
}

// OrderSource produces order items on demand. Subscribe starts a fresh
// emission; the returned item channel closes when the source is
// exhausted, and the error channel carries at most one error before
// both channels close.
type OrderSource interface {
	Subscribe(ctx context.Context) (<-chan Item, <-chan error)
}

// JSONFile is an OrderSource backed by a JSON array of order
// descriptions, replayed at an average rate of itemsPerUnit per real
// time unit via a token-bucket limiter -- the pacing the kitchen's
// logical clock samples against.
type JSONFile struct {
	path        string
	itemsPerUnit float64
	unit        order.TimeUnit
}

// NewJSONFile constructs a source that reads path lazily on every
// Subscribe call and paces emission at itemsPerUnit items per unit.
func NewJSONFile(path string, itemsPerUnit float64, unit order.TimeUnit) *JSONFile {
	return &JSONFile{path: path, itemsPerUnit: itemsPerUnit, unit: unit}
}

func (f *JSONFile) Subscribe(ctx context.Context) (<-chan Item, <-chan error) {
	items := make(chan Item)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		raw, err := os.ReadFile(f.path)
		if err != nil {
			errs <- fmt.Errorf("source: read %s: %w", f.path, err)
			return
		}

		var decoded []Item
		if err := json.Unmarshal(raw, &decoded); err != nil {
			errs <- fmt.Errorf("source: parse %s: %w", f.path, err)
			return
		}

		limiter := f.limiter()
		for _, it := range decoded {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					errs <- fmt.Errorf("source: %w", err)
					return
				}
			}
			select {
			case items <- it:
			case <-ctx.Done():
				errs <- fmt.Errorf("source: %w", ctx.Err())
				return
			}
		}
	}()

	return items, errs
}

// limiter returns a burst-1 token bucket refilling at itemsPerUnit per
// configured TimeUnit. The limiter's rate is per real second, so a
// millisecond-paced feed's rate is multiplied by 1000.
func (f *JSONFile) limiter() *rate.Limiter {
	if f.itemsPerUnit <= 0 {
		return nil
	}
	perSecond := f.itemsPerUnit
	if f.unit == order.Milliseconds {
		perSecond = f.itemsPerUnit * 1000
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
