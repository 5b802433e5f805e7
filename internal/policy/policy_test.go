package policy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchensim/internal/order"
	"kitchensim/internal/policy"
	shelf "kitchensim/internal/shelves"
)

func newTestOrder(id int64, temp order.Temperature, shelfLife, decayRate float64, now time.Time) *order.Order {
	o := order.NewOrder(id, "widget", temp, shelfLife, decayRate, order.Seconds)
	o.Initialize(now)
	return o
}

func newRegistry(capacity int) *shelf.Registry {
	temps := map[order.Temperature]*shelf.Shelf{
		order.Hot:    shelf.NewShelf(shelf.HotShelf, capacity, 1.0),
		order.Cold:   shelf.NewShelf(shelf.ColdShelf, capacity, 1.0),
		order.Frozen: shelf.NewShelf(shelf.FrozenShelf, capacity, 1.0),
	}
	overflow := shelf.NewOverflowShelf(capacity, 2.0, order.Hot, order.Cold, order.Frozen)
	return shelf.NewRegistry(temps, overflow)
}

func TestOnTempShelfFull_PicksLongestProjectedLifetime(t *testing.T) {
	now := time.Now()
	reg := newRegistry(1)
	resident := newTestOrder(1, order.Hot, 300, 0.1, now)
	ok, err := reg.Shelf(order.Hot).Add(resident)
	require.NoError(t, err)
	require.True(t, ok)

	incoming := newTestOrder(2, order.Hot, 300, 0.9, now)

	p := policy.New()
	chosen, err := p.OnTempShelfFull(reg, incoming, now)
	require.NoError(t, err)

	// resident decays slower (0.1 < 0.9), so it projects a longer
	// lifetime remaining under the overflow multiplier and should be
	// the one bumped to overflow.
	assert.Equal(t, resident.ID, chosen.ID)
}

func TestOnTempShelfFull_RestoresAnchorsAfterDeciding(t *testing.T) {
	now := time.Now()
	reg := newRegistry(1)
	resident := newTestOrder(1, order.Hot, 300, 0.1, now)
	_, err := reg.Shelf(order.Hot).Add(resident)
	require.NoError(t, err)

	incoming := newTestOrder(2, order.Hot, 300, 0.45, now)

	beforeRate := resident.CurrentDecayRate()
	beforeAnchor := resident.AddedToShelfDate()
	beforeShelfLife := resident.AdjustedShelfLife()

	p := policy.New()
	_, err = p.OnTempShelfFull(reg, incoming, now)
	require.NoError(t, err)

	assert.Equal(t, beforeRate, resident.CurrentDecayRate())
	assert.Equal(t, beforeAnchor, resident.AddedToShelfDate())
	assert.Equal(t, beforeShelfLife, resident.AdjustedShelfLife())
}

func TestOnTempShelfFull_TieBreaksByLowestID(t *testing.T) {
	now := time.Now()
	reg := newRegistry(1)
	resident := newTestOrder(5, order.Hot, 300, 0.45, now)
	_, err := reg.Shelf(order.Hot).Add(resident)
	require.NoError(t, err)

	incoming := newTestOrder(3, order.Hot, 300, 0.45, now)

	p := policy.New()
	chosen, err := p.OnTempShelfFull(reg, incoming, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), chosen.ID)
}

func TestOnOverflowShelfFull_EverythingFull_RemovesGlobalArgmin(t *testing.T) {
	now := time.Now()
	reg := newRegistry(1)
	hotResident := newTestOrder(1, order.Hot, 300, 0.05, now)
	_, err := reg.Shelf(order.Hot).Add(hotResident)
	require.NoError(t, err)
	overflowResident := newTestOrder(2, order.Cold, 300, 0.9, now)
	_, err = reg.Overflow().Add(overflowResident)
	require.NoError(t, err)

	incoming := newTestOrder(3, order.Frozen, 300, 0.2, now)

	p := policy.New()
	removal, replacement, err := p.OnOverflowShelfFull(reg, incoming, now)
	require.NoError(t, err)

	assert.Equal(t, overflowResident.ID, removal.ID)
	// The vacated slot is on overflow itself, so incoming takes it
	// directly -- no second order needs to move.
	require.NotNil(t, replacement)
	assert.Equal(t, incoming.ID, replacement.ID)
}

func TestOnOverflowShelfFull_VacatedSlotOnTempShelf_PromotesFromOverflow(t *testing.T) {
	now := time.Now()
	reg := newRegistry(1)
	// incoming's own temperature shelf must already be full for this
	// procedure to be reached at all -- tempResident occupies it, and
	// decays fastest of the three, so it is the removal victim.
	tempResident := newTestOrder(1, order.Hot, 300, 2.0, now)
	_, err := reg.Shelf(order.Hot).Add(tempResident)
	require.NoError(t, err)
	// overflowResident is the same temperature as incoming and decays
	// faster than incoming, so once tempResident's slot frees, it is
	// the frailest eligible candidate to promote into it.
	overflowResident := newTestOrder(2, order.Hot, 300, 0.4, now)
	_, err = reg.Overflow().Add(overflowResident)
	require.NoError(t, err)

	incoming := newTestOrder(3, order.Hot, 300, 0.1, now)

	p := policy.New()
	removal, replacement, err := p.OnOverflowShelfFull(reg, incoming, now)
	require.NoError(t, err)

	require.Equal(t, tempResident.ID, removal.ID)
	require.NotNil(t, replacement)
	assert.Equal(t, overflowResident.ID, replacement.ID)
}

func TestOnOverflowShelfFull_IncomingIsTheArgmin_NoOtherChanges(t *testing.T) {
	now := time.Now()
	reg := newRegistry(1)
	hotResident := newTestOrder(1, order.Hot, 300, 0.05, now)
	_, err := reg.Shelf(order.Hot).Add(hotResident)
	require.NoError(t, err)
	overflowResident := newTestOrder(2, order.Cold, 300, 0.05, now)
	_, err = reg.Overflow().Add(overflowResident)
	require.NoError(t, err)

	incoming := newTestOrder(3, order.Frozen, 10, 5.0, now)

	p := policy.New()
	removal, replacement, err := p.OnOverflowShelfFull(reg, incoming, now)
	require.NoError(t, err)

	assert.Equal(t, incoming.ID, removal.ID)
	assert.Nil(t, replacement)
}

func TestOnOrderRemoved_OffersFrailestOverflowOrderOfMatchingTemp(t *testing.T) {
	now := time.Now()
	reg := newRegistry(3)
	fragile := newTestOrder(1, order.Hot, 300, 0.9, now)
	sturdy := newTestOrder(2, order.Hot, 300, 0.05, now)
	other := newTestOrder(3, order.Cold, 300, 0.9, now)
	for _, o := range []*order.Order{fragile, sturdy, other} {
		_, err := reg.Overflow().Add(o)
		require.NoError(t, err)
	}

	removedFromHot := newTestOrder(4, order.Hot, 300, 0.1, now)

	p := policy.New()
	offer, err := p.OnOrderRemoved(reg, removedFromHot, now)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, fragile.ID, offer.ID)
}

func TestOnOrderRemoved_NoMatchingOverflowOrder_ReturnsNil(t *testing.T) {
	now := time.Now()
	reg := newRegistry(3)
	other := newTestOrder(1, order.Cold, 300, 0.9, now)
	_, err := reg.Overflow().Add(other)
	require.NoError(t, err)

	removedFromHot := newTestOrder(2, order.Hot, 300, 0.1, now)

	p := policy.New()
	offer, err := p.OnOrderRemoved(reg, removedFromHot, now)
	require.NoError(t, err)
	assert.Nil(t, offer)
}
