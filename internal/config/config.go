// Package config resolves the kitchen's runtime parameters: either the
// built-in defaults, or the fourteen positional CLI arguments the
// front end accepts. Every Config is validated with struct tags before
// the kitchen is built from it.
package config

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"kitchensim/internal/order"
)

// ArgCount is the number of positional CLI arguments the front end
// accepts (besides argv[0]). Any count other than 0 or ArgCount is a
// usage error.
const ArgCount = 14

var validate = validator.New()

// Config holds every runtime parameter needed to build a kitchen and
// drive a simulation from an orders file.
type Config struct {
	OrdersFile string `validate:"required"`

	TimeUnit          order.TimeUnit `validate:"required,oneof=seconds milliseconds"`
	OrdersPerTimeUnit float64        `validate:"gt=0"`

	DriverMinDuration int `validate:"gte=0"`
	DriverMaxDuration int `validate:"gtefield=DriverMinDuration"`

	HotCapacity   int     `validate:"gt=0"`
	HotMultiplier float64 `validate:"gt=0"`

	ColdCapacity   int     `validate:"gt=0"`
	ColdMultiplier float64 `validate:"gt=0"`

	FrozenCapacity   int     `validate:"gt=0"`
	FrozenMultiplier float64 `validate:"gt=0"`

	OverflowCapacity   int     `validate:"gt=0"`
	OverflowMultiplier float64 `validate:"gt=0"`

	Verbose bool

	// LogPath is where the text event log and running tally are
	// written; overwritten at the start of every run.
	LogPath string `validate:"required"`
}

// DefaultConfig returns the built-in configuration used when the CLI
// is invoked with no arguments.
func DefaultConfig() *Config {
	return &Config{
		OrdersFile:         "orders.json",
		TimeUnit:           order.Seconds,
		OrdersPerTimeUnit:  3.25,
		DriverMinDuration:  2,
		DriverMaxDuration:  6,
		HotCapacity:        10,
		HotMultiplier:      1.0,
		ColdCapacity:       10,
		ColdMultiplier:     1.0,
		FrozenCapacity:     10,
		FrozenMultiplier:   1.0,
		OverflowCapacity:   15,
		OverflowMultiplier: 2.0,
		Verbose:            false,
		LogPath:            "food-order-sim.log",
	}
}

// Validate checks every field's struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseArgs builds a Config from the fourteen positional CLI
// arguments, in order:
//
//	orders file, time unit, orders-per-time-unit, driver min, driver
//	max, hot capacity, hot multiplier, cold capacity, cold multiplier,
//	frozen capacity, frozen multiplier, overflow capacity, overflow
//	multiplier, verbose.
//
// An empty args slice yields DefaultConfig. Any other length is a
// usage error.
func ParseArgs(args []string) (*Config, error) {
	if len(args) == 0 {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	if len(args) != ArgCount {
		return nil, fmt.Errorf("config: expected 0 or %d arguments, got %d", ArgCount, len(args))
	}

	ordersPerTimeUnit, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return nil, fmt.Errorf("config: average orders per time unit: %w", err)
	}
	driverMin, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, fmt.Errorf("config: driver min duration: %w", err)
	}
	driverMax, err := strconv.Atoi(args[4])
	if err != nil {
		return nil, fmt.Errorf("config: driver max duration: %w", err)
	}
	hotCap, err := strconv.Atoi(args[5])
	if err != nil {
		return nil, fmt.Errorf("config: hot capacity: %w", err)
	}
	hotMult, err := strconv.ParseFloat(args[6], 64)
	if err != nil {
		return nil, fmt.Errorf("config: hot multiplier: %w", err)
	}
	coldCap, err := strconv.Atoi(args[7])
	if err != nil {
		return nil, fmt.Errorf("config: cold capacity: %w", err)
	}
	coldMult, err := strconv.ParseFloat(args[8], 64)
	if err != nil {
		return nil, fmt.Errorf("config: cold multiplier: %w", err)
	}
	frozenCap, err := strconv.Atoi(args[9])
	if err != nil {
		return nil, fmt.Errorf("config: frozen capacity: %w", err)
	}
	frozenMult, err := strconv.ParseFloat(args[10], 64)
	if err != nil {
		return nil, fmt.Errorf("config: frozen multiplier: %w", err)
	}
	overflowCap, err := strconv.Atoi(args[11])
	if err != nil {
		return nil, fmt.Errorf("config: overflow capacity: %w", err)
	}
	overflowMult, err := strconv.ParseFloat(args[12], 64)
	if err != nil {
		return nil, fmt.Errorf("config: overflow multiplier: %w", err)
	}
	verbose, err := strconv.ParseBool(args[13])
	if err != nil {
		return nil, fmt.Errorf("config: verbose flag: %w", err)
	}

	cfg := &Config{
		OrdersFile:         args[0],
		TimeUnit:           order.TimeUnit(args[1]),
		OrdersPerTimeUnit:  ordersPerTimeUnit,
		DriverMinDuration:  driverMin,
		DriverMaxDuration:  driverMax,
		HotCapacity:        hotCap,
		HotMultiplier:      hotMult,
		ColdCapacity:       coldCap,
		ColdMultiplier:     coldMult,
		FrozenCapacity:     frozenCap,
		FrozenMultiplier:   frozenMult,
		OverflowCapacity:   overflowCap,
		OverflowMultiplier: overflowMult,
		Verbose:            verbose,
		LogPath:            "food-order-sim.log",
	}
	return cfg, cfg.Validate()
}

// Usage returns the positional argument list that the CLI front end
// prints when it is given a wrong argument count.
func Usage() string {
	return "orders.json time-unit avg-orders-per-unit driver-min driver-max " +
		"hot-capacity hot-multiplier cold-capacity cold-multiplier " +
		"frozen-capacity frozen-multiplier overflow-capacity overflow-multiplier verbose"
}
