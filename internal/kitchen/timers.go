package kitchen

import (
	"time"

	"kitchensim/internal/dispatcher"
	"kitchensim/internal/order"
)

// toDuration converts an amount expressed in the kitchen's configured
// TimeUnit into a real time.Duration the Go runtime's timers can use.
// The simulation's logical clock is fed wall-clock samples (k.now), so
// one configured unit elapses as one real unit: one second of
// wall-clock time per unit when TimeUnit is seconds, one millisecond
// per unit when it is milliseconds.
func (k *Kitchen) toDuration(amount float64) time.Duration {
	if amount < 0 {
		amount = 0
	}
	if k.timeUnit == order.Milliseconds {
		return time.Duration(amount * float64(time.Millisecond))
	}
	return time.Duration(amount * float64(time.Second))
}

// scheduleDecay arms a timer that fires when o's freshness reaches
// zero under its current decay anchor. Caller holds mu.
func (k *Kitchen) scheduleDecay(o *order.Order, now time.Time) {
	remaining, err := o.LifetimeRemaining(now)
	if err != nil {
		k.logger.DPanic("scheduleDecay on uninitialized order")
		return
	}
	id := o.ID
	var t *time.Timer
	t = time.AfterFunc(k.toDuration(remaining), func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		if k.decayTimers[id] != t {
			return // superseded by a reschedule or cancellation
		}
		delete(k.decayTimers, id)
		k.retire(o, DecayedWaste, k.now())
	})
	if existing, ok := k.decayTimers[id]; ok {
		existing.Stop()
	}
	k.decayTimers[id] = t
}

// rescheduleDecay cancels and rearms o's decay timer after its anchor
// changed (a shelf move). Caller holds mu.
func (k *Kitchen) rescheduleDecay(o *order.Order, now time.Time) {
	k.cancelDecay(o.ID)
	k.scheduleDecay(o, now)
}

// cancelDecay stops and forgets o's decay timer, if one is armed.
// Caller holds mu.
func (k *Kitchen) cancelDecay(id int64) {
	if t, ok := k.decayTimers[id]; ok {
		t.Stop()
		delete(k.decayTimers, id)
	}
}

// scheduleDriver arms the timer that fires when driver arrives to
// collect o. Caller holds mu.
func (k *Kitchen) scheduleDriver(o *order.Order, driver dispatcher.Driver) {
	id := o.ID
	var t *time.Timer
	t = time.AfterFunc(k.toDuration(float64(driver.Duration)), func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		if k.driverTimers[id] != t {
			return
		}
		delete(k.driverTimers, id)
		now := k.now()
		if k.registry.ShelfOf(o) == nil {
			// already decayed and discarded before the driver arrived.
			k.maybeFinish()
			return
		}
		freshness, err := o.Freshness(now)
		if err != nil {
			k.failLocked(err)
			return
		}
		if freshness <= 0 {
			// late pickup: the order decayed in place before the driver
			// got to it, even though its decay timer hasn't fired yet.
			k.retire(o, RemovedWaste, now)
			return
		}
		k.retire(o, PickedUp, now)
	})
	if existing, ok := k.driverTimers[id]; ok {
		existing.Stop()
	}
	k.driverTimers[id] = t
}

// cancelDriver stops and forgets o's driver timer, if one is armed.
// Caller holds mu.
func (k *Kitchen) cancelDriver(id int64) {
	if t, ok := k.driverTimers[id]; ok {
		t.Stop()
		delete(k.driverTimers, id)
	}
}
