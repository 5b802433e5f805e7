package kitchen

import (
	"time"

	"kitchensim/internal/order"
	shelf "kitchensim/internal/shelves"
)

// EventType names the kind of thing that just happened to an order.
type EventType string

const (
	// AddedToShelf fires when an order is placed on a shelf, whether its
	// own temperature shelf, overflow, or a shelf it is relocated to
	// (bumped to overflow, or promoted back from it).
	AddedToShelf EventType = "added_to_shelf"
	// PickedUp fires when a driver collects an order while it is still
	// fresh.
	PickedUp EventType = "picked_up"
	// DecayedWaste fires when an order's decay timer fires while the
	// order is still on a shelf.
	DecayedWaste EventType = "decayed_waste"
	// RemovedWaste fires when an order is discarded to make room, or
	// when a driver arrives to find the order still on its shelf with
	// freshness already at zero (a late pickup).
	RemovedWaste EventType = "removed_waste"
)

// OrderEvent is one emission on the kitchen's event stream: something
// happened to Order, optionally involving a shelf, with a frozen
// snapshot of every shelf's contents as of Date.
type OrderEvent struct {
	Order     *order.Order
	Type      EventType
	ShelfType *shelf.ShelfType // nil when the event names no single shelf
	Date      time.Time
	Shelves   map[shelf.ShelfType]shelf.Snapshot
}
