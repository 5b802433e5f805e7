package order

import (
	"errors"
	"fmt"
	"time"

	"kitchensim/internal/decay"
)

// Temperature type for order temperature
type Temperature string

// Temperature constants
const (
	Hot    Temperature = "hot"
	Cold   Temperature = "cold"
	Frozen Temperature = "frozen"
)

// TimeUnit is the resolution the kitchen is driven at. ShelfLife and
// decay rate are expressed in this unit.
type TimeUnit string

const (
	Seconds      TimeUnit = "seconds"
	Milliseconds TimeUnit = "milliseconds"
)

// ErrNotInitialized is returned by any decay query made before Initialize.
var ErrNotInitialized = errors.New("order: decay query before initialize")

// Order represents a food order in the system. Identity is its ID
// alone; equality and hashing never look at Name/Temp/shelf-life.
//
// The decay anchor -- addedToShelfDate, currentDecayRate,
// adjustedShelfLife -- is mutated only through UpdateDecayRate, which
// re-anchors freshness so that a shelf change never causes a visible
// discontinuity.
type Order struct {
	ID        int64
	Name      string
	Temp      Temperature
	ShelfLife float64 // in TimeUnit, > 0
	DecayRate float64 // immutable base rate, non-negative
	TimeUnit  TimeUnit

	birthDate time.Time
	initDone  bool

	addedToShelfDate  time.Time
	currentDecayRate  float64
	adjustedShelfLife float64
}

// NewOrder constructs an order. It is not usable for decay queries
// until Initialize is called.
func NewOrder(id int64, name string, temp Temperature, shelfLife, decayRate float64, unit TimeUnit) *Order {
	return &Order{
		ID:        id,
		Name:      name,
		Temp:      temp,
		ShelfLife: shelfLife,
		DecayRate: decayRate,
		TimeUnit:  unit,
	}
}

// Initialize sets the birth anchor and the initial decay anchor. Must
// be called exactly once, before any first placement.
func (o *Order) Initialize(now time.Time) {
	o.birthDate = now
	o.addedToShelfDate = now
	o.currentDecayRate = o.DecayRate
	o.adjustedShelfLife = o.ShelfLife
	o.initDone = true
}

// Initialized reports whether Initialize has been called.
func (o *Order) Initialized() bool {
	return o.initDone
}

// BirthDate returns the time Initialize was first called.
func (o *Order) BirthDate() (time.Time, error) {
	if !o.initDone {
		return time.Time{}, ErrNotInitialized
	}
	return o.birthDate, nil
}

// Freshness returns decay.Freshness(adjustedShelfLife, currentDecayRate,
// now-addedToShelfDate), in the order's TimeUnit.
func (o *Order) Freshness(now time.Time) (float64, error) {
	if !o.initDone {
		return 0, ErrNotInitialized
	}
	return decay.Freshness(o.adjustedShelfLife, o.currentDecayRate, o.elapsed(now)), nil
}

// NormalizedFreshness is Freshness divided by the order's original
// (never-adjusted) shelf life -- the value reported to the display.
func (o *Order) NormalizedFreshness(now time.Time) (float64, error) {
	f, err := o.Freshness(now)
	if err != nil {
		return 0, err
	}
	if o.ShelfLife == 0 {
		return 0, nil
	}
	return f / o.ShelfLife, nil
}

// LifetimeRemaining returns the time until freshness reaches zero under
// the current anchor, clamped at zero.
func (o *Order) LifetimeRemaining(now time.Time) (float64, error) {
	if !o.initDone {
		return 0, ErrNotInitialized
	}
	remaining := decay.Lifetime(o.adjustedShelfLife, o.currentDecayRate) - o.elapsed(now)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// UpdateDecayRate atomically re-anchors the order: adjustedShelfLife
// becomes the freshness at now under the old anchor, addedToShelfDate
// becomes now, and currentDecayRate becomes newRate. Freshness at now
// is unchanged by the call; only the slope going forward changes. This
// is what lets an order migrate between shelves of different decay
// multipliers without a visible jump in freshness.
func (o *Order) UpdateDecayRate(now time.Time, newRate float64) error {
	f, err := o.Freshness(now)
	if err != nil {
		return err
	}
	o.adjustedShelfLife = f
	o.addedToShelfDate = now
	o.currentDecayRate = newRate
	return nil
}

// CurrentDecayRate returns the order's present (shelf-adjusted) decay
// rate, as distinct from the immutable base DecayRate.
func (o *Order) CurrentDecayRate() float64 {
	return o.currentDecayRate
}

// AddedToShelfDate returns the start of the current decay segment.
func (o *Order) AddedToShelfDate() time.Time {
	return o.addedToShelfDate
}

// AdjustedShelfLife returns the starting freshness of the current decay
// segment.
func (o *Order) AdjustedShelfLife() float64 {
	return o.adjustedShelfLife
}

func (o *Order) elapsed(now time.Time) float64 {
	d := now.Sub(o.addedToShelfDate)
	if o.TimeUnit == Milliseconds {
		return float64(d.Milliseconds())
	}
	return d.Seconds()
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{ID: %d, Name: %s, Temp: %s}", o.ID, o.Name, o.Temp)
}
