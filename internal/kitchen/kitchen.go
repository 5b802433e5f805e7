// Package kitchen implements the coordinator: the single goroutine
// discipline that ingests orders from a source, places them on
// shelves according to internal/policy, retires them on pickup or
// decay, and emits one OrderEvent per thing that happens. Every
// state-mutating operation is serialized by one mutex -- no shelf,
// order, or timer is ever touched by two goroutines concurrently.
package kitchen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kitchensim/internal/dispatcher"
	"kitchensim/internal/order"
	"kitchensim/internal/policy"
	shelf "kitchensim/internal/shelves"
	"kitchensim/internal/source"
)

// Kitchen is the coordinator. Build one with New, then call
// ProcessOrders exactly once.
type Kitchen struct {
	mu sync.Mutex

	registry *shelf.Registry
	policy   *policy.OverflowPolicy
	dispatch dispatcher.Dispatcher
	logger   *zap.Logger
	timeUnit order.TimeUnit
	now      func() time.Time

	nextID int64

	decayTimers  map[int64]*time.Timer
	driverTimers map[int64]*time.Timer

	sourceDone bool
	finished   bool

	events chan OrderEvent
	errs   chan error
}

// New builds a kitchen over the given shelf topology. unit is the
// time unit every order's shelf life and decay rate are expressed in.
func New(registry *shelf.Registry, p *policy.OverflowPolicy, d dispatcher.Dispatcher, logger *zap.Logger, unit order.TimeUnit) *Kitchen {
	return &Kitchen{
		registry:     registry,
		policy:       p,
		dispatch:     d,
		logger:       logger,
		timeUnit:     unit,
		now:          time.Now,
		decayTimers:  make(map[int64]*time.Timer),
		driverTimers: make(map[int64]*time.Timer),
		events:       make(chan OrderEvent),
		errs:         make(chan error, 1),
	}
}

// Shelf returns the temperature shelf for temp, or nil.
func (k *Kitchen) Shelf(temp order.Temperature) *shelf.Shelf {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.registry.Shelf(temp)
}

// Overflow returns the shared overflow shelf.
func (k *Kitchen) Overflow() *shelf.Shelf {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.registry.Overflow()
}

// ShelfOf returns the shelf currently holding o, or nil.
func (k *Kitchen) ShelfOf(o *order.Order) *shelf.Shelf {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.registry.ShelfOf(o)
}

// ProcessOrders drains src on a new goroutine, placing and retiring
// orders as it goes, and returns the event and error streams. The
// event stream closes once src is exhausted and every scheduled decay
// and driver timer has fired. A source error, or any placement
// invariant violation, is sent on the error stream and both streams
// close early.
func (k *Kitchen) ProcessOrders(ctx context.Context, src source.OrderSource) (<-chan OrderEvent, <-chan error) {
	items, srcErrs := src.Subscribe(ctx)
	go k.drain(ctx, items, srcErrs)
	return k.events, k.errs
}

func (k *Kitchen) drain(ctx context.Context, items <-chan source.Item, srcErrs <-chan error) {
	for items != nil || srcErrs != nil {
		select {
		case it, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			if err := k.ingest(it); err != nil {
				k.fail(err)
				return
			}
		case err, ok := <-srcErrs:
			if !ok {
				srcErrs = nil
				continue
			}
			if err != nil {
				k.fail(err)
				return
			}
		case <-ctx.Done():
			k.fail(ctx.Err())
			return
		}
	}

	k.mu.Lock()
	k.sourceDone = true
	k.maybeFinish()
	k.mu.Unlock()
}

func (k *Kitchen) ingest(it source.Item) error {
	if it.ShelfLife <= 0 {
		return fmt.Errorf("%w: shelfLife must be positive, got %v", ErrParse, it.ShelfLife)
	}
	if it.DecayRate < 0 {
		return fmt.Errorf("%w: decayRate must be non-negative, got %v", ErrParse, it.DecayRate)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.registry.Shelf(it.Temp) == nil {
		return fmt.Errorf("%w: %s", ErrInvalidOrderType, it.Temp)
	}

	k.nextID++
	id := k.nextID
	now := k.now()
	o := order.NewOrder(id, it.Name, it.Temp, it.ShelfLife, it.DecayRate, k.timeUnit)
	o.Initialize(now)

	// A driver is dispatched for every order, independent of whether it
	// finds a shelf: if placement below discards o outright, the driver
	// timer still fires later and finds o on no shelf -- a no-op, not a
	// lost dispatch.
	driver, err := k.dispatch.DispatchDriver(o)
	if err != nil {
		return fmt.Errorf("kitchen: dispatch driver: %w", err)
	}

	if err := k.place(o, now); err != nil {
		return err
	}

	k.scheduleDriver(o, driver)
	return nil
}

// place runs the three-case placement procedure: direct placement,
// bump-to-overflow, or evict-and-chain-promote when every shelf is
// full. Caller holds mu.
func (k *Kitchen) place(incoming *order.Order, now time.Time) error {
	tempShelf := k.registry.Shelf(incoming.Temp)
	overflow := k.registry.Overflow()

	added, err := tempShelf.Add(incoming)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrderType, err)
	}
	if added {
		if err := k.anchorTo(incoming, tempShelf, now); err != nil {
			return err
		}
		k.scheduleDecay(incoming, now)
		k.emit(incoming, AddedToShelf, &tempShelf.Type, now)
		return nil
	}

	if !overflow.IsFull() {
		return k.placeViaTempShelfFull(incoming, tempShelf, overflow, now)
	}
	return k.placeViaOverflowFull(incoming, now)
}

// placeViaTempShelfFull is case B: incoming's own temperature shelf is
// full but overflow has room. The policy picks which of {incoming,
// temp shelf residents} moves to overflow; whichever one actually
// moves gets re-anchored to the overflow multiplier here, since the
// policy itself never leaves a lasting rate change.
func (k *Kitchen) placeViaTempShelfFull(incoming *order.Order, tempShelf, overflow *shelf.Shelf, now time.Time) error {
	chosen, err := k.policy.OnTempShelfFull(k.registry, incoming, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
	}

	if chosen.ID == incoming.ID {
		if _, err := overflow.Add(incoming); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
		}
		if err := k.anchorTo(incoming, overflow, now); err != nil {
			return err
		}
		k.scheduleDecay(incoming, now)
		k.emit(incoming, AddedToShelf, &overflow.Type, now)
		return nil
	}

	if !tempShelf.Remove(chosen) {
		return fmt.Errorf("%w: chosen order missing from its temp shelf", ErrInvalidProcedure)
	}
	if _, err := overflow.Add(chosen); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
	}
	if err := k.anchorTo(chosen, overflow, now); err != nil {
		return err
	}
	k.rescheduleDecay(chosen, now)
	k.emit(chosen, AddedToShelf, &overflow.Type, now)

	if _, err := tempShelf.Add(incoming); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
	}
	if err := k.anchorTo(incoming, tempShelf, now); err != nil {
		return err
	}
	k.scheduleDecay(incoming, now)
	k.emit(incoming, AddedToShelf, &tempShelf.Type, now)
	return nil
}

// placeViaOverflowFull is case C: every shelf incoming could occupy is
// full. The policy names a removal victim and, optionally, a
// replacement that chains into the vacancy the victim leaves, which in
// turn leaves a second vacancy for incoming.
func (k *Kitchen) placeViaOverflowFull(incoming *order.Order, now time.Time) error {
	removal, replacement, err := k.policy.OnOverflowShelfFull(k.registry, incoming, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
	}

	if removal.ID == incoming.ID {
		k.emit(incoming, RemovedWaste, nil, now)
		return nil
	}

	removalShelf := k.registry.ShelfOf(removal)
	if removalShelf == nil {
		return fmt.Errorf("%w: removal candidate not on any shelf", ErrInvalidProcedure)
	}
	removalShelf.Remove(removal)
	k.cancelDecay(removal.ID)
	k.emit(removal, RemovedWaste, &removalShelf.Type, now)

	if replacement == nil {
		return fmt.Errorf("%w: no replacement for a freed slot", ErrInvalidProcedure)
	}

	if replacement.ID == incoming.ID {
		if _, err := removalShelf.Add(incoming); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
		}
		if err := k.anchorTo(incoming, removalShelf, now); err != nil {
			return err
		}
		k.scheduleDecay(incoming, now)
		k.emit(incoming, AddedToShelf, &removalShelf.Type, now)
		return nil
	}

	replacementShelf := k.registry.ShelfOf(replacement)
	if replacementShelf == nil {
		return fmt.Errorf("%w: replacement candidate not on any shelf", ErrInvalidProcedure)
	}
	replacementShelf.Remove(replacement)
	if _, err := removalShelf.Add(replacement); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
	}
	if err := k.anchorTo(replacement, removalShelf, now); err != nil {
		return err
	}
	k.rescheduleDecay(replacement, now)
	k.emit(replacement, AddedToShelf, &removalShelf.Type, now)

	if _, err := replacementShelf.Add(incoming); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProcedure, err)
	}
	if err := k.anchorTo(incoming, replacementShelf, now); err != nil {
		return err
	}
	k.scheduleDecay(incoming, now)
	k.emit(incoming, AddedToShelf, &replacementShelf.Type, now)
	return nil
}

// retire removes o from whichever shelf holds it, offers the vacancy
// to an overflow order of the same temperature per policy, and emits
// the retirement event. Caller holds mu.
func (k *Kitchen) retire(o *order.Order, eventType EventType, now time.Time) {
	home := k.registry.ShelfOf(o)
	if home == nil {
		return
	}
	home.Remove(o)
	k.cancelDecay(o.ID)
	k.cancelDriver(o.ID)
	k.emit(o, eventType, &home.Type, now)

	if home.Type == shelf.OverflowShelf {
		k.maybeFinish()
		return
	}

	promoted, err := k.policy.OnOrderRemoved(k.registry, o, now)
	if err != nil {
		k.failLocked(fmt.Errorf("%w: %v", ErrInvalidProcedure, err))
		return
	}
	if promoted != nil {
		overflow := k.registry.Overflow()
		overflow.Remove(promoted)
		if _, err := home.Add(promoted); err != nil {
			k.failLocked(fmt.Errorf("%w: %v", ErrInvalidProcedure, err))
			return
		}
		if err := k.anchorTo(promoted, home, now); err != nil {
			k.failLocked(err)
			return
		}
		k.rescheduleDecay(promoted, now)
		k.emit(promoted, AddedToShelf, &home.Type, now)
	}
	k.maybeFinish()
}

// anchorTo re-anchors o's decay rate to its base rate scaled by s's
// decay multiplier, at the instant it physically lands on s. This is
// the only place a shelf move actually changes an order's ongoing
// decay rate; every policy decision upstream of it is read-only.
func (k *Kitchen) anchorTo(o *order.Order, s *shelf.Shelf, now time.Time) error {
	if err := o.UpdateDecayRate(now, o.DecayRate*s.DecayRateMultiplier); err != nil {
		return fmt.Errorf("kitchen: anchor order to shelf: %w", err)
	}
	return nil
}

func (k *Kitchen) emit(o *order.Order, eventType EventType, shelfType *shelf.ShelfType, now time.Time) {
	if k.finished {
		return
	}
	snap, err := k.snapshotShelves(now)
	if err != nil {
		k.logger.Warn("could not snapshot shelves for event", zap.Error(err))
		k.failLocked(err)
		return
	}
	evt := OrderEvent{Order: o, Type: eventType, ShelfType: shelfType, Date: now, Shelves: snap}
	k.events <- evt
}

func (k *Kitchen) snapshotShelves(now time.Time) (map[shelf.ShelfType]shelf.Snapshot, error) {
	out := make(map[shelf.ShelfType]shelf.Snapshot)
	for _, s := range k.registry.All() {
		snap, err := s.Snapshot(now)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCloneFailure, err)
		}
		out[s.Type] = snap
	}
	return out, nil
}

// fail locks and delegates to failLocked. Use from contexts that do
// not already hold mu.
func (k *Kitchen) fail(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failLocked(err)
}

// failLocked aborts the run: every pending timer is stopped, the error
// is handed to the error stream, and both streams close. Caller holds
// mu.
func (k *Kitchen) failLocked(err error) {
	if k.finished {
		return
	}
	k.finished = true
	for id := range k.decayTimers {
		k.decayTimers[id].Stop()
		delete(k.decayTimers, id)
	}
	for id := range k.driverTimers {
		k.driverTimers[id].Stop()
		delete(k.driverTimers, id)
	}
	select {
	case k.errs <- err:
	default:
	}
	close(k.events)
	close(k.errs)
}

func (k *Kitchen) maybeFinish() {
	if k.finished {
		return
	}
	if !k.sourceDone || len(k.decayTimers) > 0 || len(k.driverTimers) > 0 {
		return
	}
	k.finished = true
	close(k.events)
	close(k.errs)
}
