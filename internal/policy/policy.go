// Package policy implements the overflow placement decisions the
// kitchen coordinator consults whenever a shelf saturates: which order
// to bump onto overflow, which order to sacrifice when everything is
// full, and which overflow order to promote when a temperature-shelf
// slot frees up.
//
// Every decision procedure here is read-only with respect to the
// shelves themselves -- it only ever mutates an order's decay anchor
// transiently, to answer a "what if this order were on shelf X"
// question, and always restores the anchor before returning. The
// kitchen coordinator performs the real shelf mutations afterward.
package policy

import (
	"time"

	"kitchensim/internal/order"
	shelf "kitchensim/internal/shelves"
)

// KitchenView is the read access to shelf state a policy decision
// needs. *shelf.Registry satisfies it.
type KitchenView interface {
	Shelf(temp order.Temperature) *shelf.Shelf
	Overflow() *shelf.Shelf
	ShelfOf(o *order.Order) *shelf.Shelf
}

// OverflowPolicy bundles the three overflow-placement decision
// procedures the kitchen consults: which order moves to overflow when
// a temperature shelf saturates, which order is sacrificed when every
// shelf is full, and which overflow order is promoted when a
// temperature-shelf slot frees up. It is stateless; every method takes
// the kitchen view and the current instant explicitly.
type OverflowPolicy struct{}

// New constructs the default overflow policy.
func New() *OverflowPolicy {
	return &OverflowPolicy{}
}

// OnTempShelfFull selects which of {incoming} union {orders currently
// on incoming's temperature shelf} should move to the overflow shelf:
// the one that would have the longest projected lifetime remaining if
// it were moved there. Orders with long remaining lifetime suffer
// relatively least from the accelerated overflow decay, so they are
// the ones moved; fragile orders stay on the friendlier shelf.
func (p *OverflowPolicy) OnTempShelfFull(k KitchenView, incoming *order.Order, now time.Time) (*order.Order, error) {
	tempShelf := k.Shelf(incoming.Temp)
	overflow := k.Overflow()

	candidates := append([]*order.Order{incoming}, tempShelf.Orders()...)

	projected := make([]float64, len(candidates))
	restores := make([]func() error, len(candidates))
	for i, c := range candidates {
		lt, restore, err := probeLifetime(c, c.DecayRate*overflow.DecayRateMultiplier, now)
		if err != nil {
			return nil, err
		}
		projected[i] = lt
		restores[i] = restore
	}

	chosen := argmaxByLifetime(candidates, projected)

	for _, restore := range restores {
		if err := restore(); err != nil {
			return nil, err
		}
	}

	return chosen, nil
}

// OnOverflowShelfFull is consulted when every shelf the incoming order
// could occupy is full. It returns the order to discard and,
// optionally, the order to move into the slot the discard vacates.
func (p *OverflowPolicy) OnOverflowShelfFull(k KitchenView, incoming *order.Order, now time.Time) (removal *order.Order, replacement *order.Order, err error) {
	overflow := k.Overflow()
	overflowResidents := overflow.Orders()

	// The removal candidate pool is restricted to orders whose eviction
	// can actually open a path for incoming: any overflow resident
	// (evicting one frees an overflow slot), or a resident of incoming's
	// own temperature shelf (evicting one frees a same-temperature
	// slot incoming could take directly). Residents of other
	// temperature shelves are left alone -- freeing their slot would
	// not help incoming find a home.
	pool := []*order.Order{incoming}
	pool = append(pool, overflowResidents...)
	if incomingTempShelf := k.Shelf(incoming.Temp); incomingTempShelf != nil {
		pool = append(pool, ordersOfTemp(incomingTempShelf.Orders(), incoming.Temp)...)
	}

	removal, err = argminLifetime(pool, now)
	if err != nil {
		return nil, nil, err
	}

	if removal == incoming {
		return incoming, nil, nil
	}

	if homeShelf := k.Shelf(removal.Temp); homeShelf != nil && homeShelf.Contains(removal) {
		// Vacated slot is on a temperature shelf: refill from
		// overflow residents of that temperature, the frailest first.
		candidates := ordersOfTemp(overflowResidents, removal.Temp)
		if incoming.Temp == removal.Temp {
			candidates = append(candidates, incoming)
		}
		if len(candidates) == 0 {
			return removal, nil, nil
		}
		replacement, err = argminLifetime(candidates, now)
		return removal, replacement, err
	}

	// Vacated slot is on overflow: refill from temp-shelf orders of
	// incoming's temperature, whichever survives the overflow
	// multiplier best.
	var replacementCandidates []*order.Order
	if incomingTempShelf := k.Shelf(incoming.Temp); incomingTempShelf != nil {
		replacementCandidates = ordersOfTemp(incomingTempShelf.Orders(), incoming.Temp)
	}
	replacementCandidates = append(replacementCandidates, incoming)

	projected := make([]float64, len(replacementCandidates))
	restores := make([]func() error, len(replacementCandidates))
	for i, c := range replacementCandidates {
		lt, restore, perr := probeLifetime(c, c.DecayRate*overflow.DecayRateMultiplier, now)
		if perr != nil {
			return nil, nil, perr
		}
		projected[i] = lt
		restores[i] = restore
	}
	replacement = argmaxByLifetime(replacementCandidates, projected)

	for _, restore := range restores {
		if rerr := restore(); rerr != nil {
			return nil, nil, rerr
		}
	}

	return removal, replacement, nil
}

// OnOrderRemoved is consulted whenever a temperature-shelf slot frees
// (pickup, decay, or eviction). It offers the frailest overflow order
// of the matching temperature to refill the slot, or nil if overflow
// holds none of that temperature.
func (p *OverflowPolicy) OnOrderRemoved(k KitchenView, removed *order.Order, now time.Time) (*order.Order, error) {
	candidates := ordersOfTemp(k.Overflow().Orders(), removed.Temp)
	if len(candidates) == 0 {
		return nil, nil
	}
	return argminLifetime(candidates, now)
}

// probeLifetime temporarily re-rates o to rate and returns its
// projected lifetime remaining at now, plus a restore function that
// re-anchors o back to its rate from immediately before the probe.
// Because UpdateDecayRate always preserves freshness at the instant of
// the call, calling restore() at the same now used to probe undoes the
// probe exactly -- o ends up indistinguishable from an o that was
// never probed at all.
func probeLifetime(o *order.Order, rate float64, now time.Time) (lifetime float64, restore func() error, err error) {
	original := o.CurrentDecayRate()
	if err := o.UpdateDecayRate(now, rate); err != nil {
		return 0, nil, err
	}
	lt, err := o.LifetimeRemaining(now)
	if err != nil {
		return 0, nil, err
	}
	return lt, func() error { return o.UpdateDecayRate(now, original) }, nil
}

func argmaxByLifetime(candidates []*order.Order, lifetimes []float64) *order.Order {
	best := candidates[0]
	bestLifetime := lifetimes[0]
	for i := 1; i < len(candidates); i++ {
		c, lt := candidates[i], lifetimes[i]
		if lt > bestLifetime || (lt == bestLifetime && c.ID < best.ID) {
			best, bestLifetime = c, lt
		}
	}
	return best
}

func argminLifetime(candidates []*order.Order, now time.Time) (*order.Order, error) {
	var best *order.Order
	var bestLifetime float64
	for _, c := range candidates {
		lt, err := c.LifetimeRemaining(now)
		if err != nil {
			return nil, err
		}
		if best == nil || lt < bestLifetime || (lt == bestLifetime && c.ID < best.ID) {
			best, bestLifetime = c, lt
		}
	}
	return best, nil
}

func ordersOfTemp(orders []*order.Order, temp order.Temperature) []*order.Order {
	out := make([]*order.Order, 0, len(orders))
	for _, o := range orders {
		if o.Temp == temp {
			out = append(out, o)
		}
	}
	return out
}
