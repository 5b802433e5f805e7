// Package display consumes the kitchen's event stream and renders it
// to a text log: one formatted line per event, plus a running tally
// of how many orders have been received, picked up, decayed, and
// discarded. The log file is truncated at the start of every run.
package display

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"kitchensim/internal/kitchen"
)

// Display owns the log file and the running tally.
type Display struct {
	logger *zap.Logger
	file   *os.File

	received, pickedUp, decayed, removed int
	seen                                 map[int64]struct{}
}

// New opens (truncating) the log file at path.
func New(path string, logger *zap.Logger) (*Display, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("display: open %s: %w", path, err)
	}
	return &Display{logger: logger, file: f}, nil
}

// Close closes the underlying log file.
func (d *Display) Close() error {
	return d.file.Close()
}

// Consume reads events and errs until both close, writing a line per
// event and the tally after each. It returns the first error received,
// if any.
func (d *Display) Consume(ctx context.Context, events <-chan kitchen.OrderEvent, errs <-chan error) error {
	for events != nil || errs != nil {
		select {
		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			d.record(evt)
			if err := d.writeLine(evt); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (d *Display) record(evt kitchen.OrderEvent) {
	// An order counts as received the first time any event names it;
	// later AddedToShelf events for the same order are relocations.
	if d.seen == nil {
		d.seen = make(map[int64]struct{})
	}
	if _, ok := d.seen[evt.Order.ID]; !ok {
		d.seen[evt.Order.ID] = struct{}{}
		d.received++
	}
	switch evt.Type {
	case kitchen.PickedUp:
		d.pickedUp++
	case kitchen.DecayedWaste:
		d.decayed++
	case kitchen.RemovedWaste:
		d.removed++
	}
}

func (d *Display) writeLine(evt kitchen.OrderEvent) error {
	shelfName := "none"
	if evt.ShelfType != nil {
		shelfName = string(*evt.ShelfType)
	}
	line := fmt.Sprintf(
		"%s  %-14s order=%-6d name=%-20s shelf=%-9s | received=%d picked_up=%d decayed=%d removed=%d\n",
		evt.Date.Format("15:04:05.000"), evt.Type, evt.Order.ID, evt.Order.Name, shelfName,
		d.received, d.pickedUp, d.decayed, d.removed,
	)
	if _, err := d.file.WriteString(line); err != nil {
		return fmt.Errorf("display: write log: %w", err)
	}
	d.logger.Info("order event",
		zap.Int64("order_id", evt.Order.ID),
		zap.String("type", string(evt.Type)),
		zap.String("shelf", shelfName),
	)
	return nil
}
