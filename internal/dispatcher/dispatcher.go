// Package dispatcher models the external driver-dispatch collaborator:
// given an order, it returns a driver whose arrival delay is a bounded
// random duration. The kitchen coordinator only depends on the
// Dispatcher interface; how a driver is actually found (routing,
// availability, traffic) is someone else's problem.
package dispatcher

import (
	"fmt"
	"math/rand/v2"

	"kitchensim/internal/order"
)

// Driver is the dispatch result for one order: it will arrive after
// Duration time units (in TimeUnit).
type Driver struct {
	TimeUnit order.TimeUnit
	Duration int
	Order    *order.Order
}

// Dispatcher dispatches a driver for an order.
type Dispatcher interface {
	DispatchDriver(o *order.Order) (Driver, error)
}

// BoundedRandom dispatches drivers whose duration is drawn uniformly
// from the closed interval [Min, Max].
type BoundedRandom struct {
	Min, Max int
	TimeUnit order.TimeUnit
}

// NewBoundedRandom constructs a dispatcher with the given closed
// interval. min must be <= max and both non-negative.
func NewBoundedRandom(min, max int, unit order.TimeUnit) (*BoundedRandom, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("dispatcher: invalid bounds [%d, %d]", min, max)
	}
	return &BoundedRandom{Min: min, Max: max, TimeUnit: unit}, nil
}

// DispatchDriver returns a driver whose duration is uniformly random
// in [Min, Max].
func (d *BoundedRandom) DispatchDriver(o *order.Order) (Driver, error) {
	span := d.Max - d.Min
	duration := d.Min
	if span > 0 {
		duration += rand.IntN(span + 1)
	}
	return Driver{TimeUnit: d.TimeUnit, Duration: duration, Order: o}, nil
}
