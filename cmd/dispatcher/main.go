package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kitchensim/internal/config"
	"kitchensim/internal/dispatcher"
	"kitchensim/internal/display"
	"kitchensim/internal/kitchen"
	"kitchensim/internal/order"
	"kitchensim/internal/policy"
	shelf "kitchensim/internal/shelves"
	"kitchensim/internal/source"
	"kitchensim/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "kitchensim [orders.json time-unit avg-orders-per-unit driver-min driver-max hot-capacity hot-multiplier cold-capacity cold-multiplier frozen-capacity frozen-multiplier overflow-capacity overflow-multiplier verbose]",
	Short: "Simulate a kitchen's order shelf lifecycle",
	Long: `kitchensim replays a feed of food orders through a shelf-based kitchen:
orders are placed on temperature shelves, decay over time, and are picked up
by dispatched drivers, overflowing and being discarded under shelf pressure
per the configured capacities.

Invoke with no arguments to run the built-in defaults, or with all fourteen
positional arguments to override every parameter.`,
	RunE: run,
}

func init() {
	rootCmd.Args = func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != config.ArgCount {
			return fmt.Errorf("expected 0 or %d arguments: %s", config.ArgCount, config.Usage())
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, err := telemetry.NewLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	registry := buildRegistry(cfg)
	dispatch, err := dispatcher.NewBoundedRandom(cfg.DriverMinDuration, cfg.DriverMaxDuration, cfg.TimeUnit)
	if err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}
	k := kitchen.New(registry, policy.New(), dispatch, logger, cfg.TimeUnit)
	feed := source.NewJSONFile(cfg.OrdersFile, cfg.OrdersPerTimeUnit, cfg.TimeUnit)

	sink, err := display.New(cfg.LogPath, logger)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	defer sink.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	events, errs := k.ProcessOrders(ctx, feed)

	done := make(chan error, 1)
	go func() {
		done <- sink.Consume(ctx, events, errs)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		logger.Info("simulation completed")
		return nil
	case <-stop:
		logger.Info("received interrupt, shutting down")
		cancel()
		<-done
		return nil
	}
}

func buildRegistry(cfg *config.Config) *shelf.Registry {
	temps := map[order.Temperature]*shelf.Shelf{
		order.Hot:    shelf.NewShelf(shelf.HotShelf, cfg.HotCapacity, cfg.HotMultiplier),
		order.Cold:   shelf.NewShelf(shelf.ColdShelf, cfg.ColdCapacity, cfg.ColdMultiplier),
		order.Frozen: shelf.NewShelf(shelf.FrozenShelf, cfg.FrozenCapacity, cfg.FrozenMultiplier),
	}
	overflow := shelf.NewOverflowShelf(cfg.OverflowCapacity, cfg.OverflowMultiplier, order.Hot, order.Cold, order.Frozen)
	return shelf.NewRegistry(temps, overflow)
}
