package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kitchensim/internal/config"
	"kitchensim/internal/order"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, order.Seconds, cfg.TimeUnit)
}

func TestParseArgs_NoArgsReturnsDefault(t *testing.T) {
	cfg, err := config.ParseArgs(nil)
	assert.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestParseArgs_WrongCountFails(t *testing.T) {
	_, err := config.ParseArgs([]string{"orders.json", "seconds"})
	assert.Error(t, err)
}

func TestParseArgs_FullArgumentList(t *testing.T) {
	args := []string{
		"orders.json", "seconds", "3.25", "2", "6",
		"10", "1", "10", "1", "10", "1", "15", "2", "true",
	}
	cfg, err := config.ParseArgs(args)
	assert.NoError(t, err)
	assert.Equal(t, "orders.json", cfg.OrdersFile)
	assert.Equal(t, order.Seconds, cfg.TimeUnit)
	assert.Equal(t, 3.25, cfg.OrdersPerTimeUnit)
	assert.Equal(t, 2, cfg.DriverMinDuration)
	assert.Equal(t, 6, cfg.DriverMaxDuration)
	assert.Equal(t, 10, cfg.HotCapacity)
	assert.Equal(t, 15, cfg.OverflowCapacity)
	assert.Equal(t, 2.0, cfg.OverflowMultiplier)
	assert.True(t, cfg.Verbose)
}

func TestParseArgs_InvalidNumberFails(t *testing.T) {
	args := []string{
		"orders.json", "seconds", "not-a-number", "2", "6",
		"10", "1", "10", "1", "10", "1", "15", "2", "true",
	}
	_, err := config.ParseArgs(args)
	assert.Error(t, err)
}

func TestParseArgs_RejectsDriverMaxBelowMin(t *testing.T) {
	args := []string{
		"orders.json", "seconds", "3.25", "6", "2",
		"10", "1", "10", "1", "10", "1", "15", "2", "true",
	}
	_, err := config.ParseArgs(args)
	assert.Error(t, err)
}
