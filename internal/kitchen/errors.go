package kitchen

import "errors"

// Sentinel errors the kitchen coordinator can surface on its error
// stream. Wrap with fmt.Errorf("...: %w", err) when adding context.
var (
	// ErrInvalidOrderType is returned when an order's temperature has
	// no matching shelf in the registry.
	ErrInvalidOrderType = errors.New("kitchen: order temperature has no shelf")

	// ErrInvalidProcedure is returned when a placement procedure
	// reaches a state its invariants say is unreachable.
	ErrInvalidProcedure = errors.New("kitchen: invalid placement procedure")

	// ErrParse is returned when an order source item fails validation
	// (e.g. non-positive shelf life).
	ErrParse = errors.New("kitchen: could not parse order")

	// ErrCloneFailure is returned when a shelf snapshot cannot be taken
	// for an event.
	ErrCloneFailure = errors.New("kitchen: could not snapshot shelves")
)
