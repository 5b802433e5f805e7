package dispatcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchensim/internal/dispatcher"
	"kitchensim/internal/order"
)

func TestNewBoundedRandom_RejectsInvertedBounds(t *testing.T) {
	_, err := dispatcher.NewBoundedRandom(6, 2, order.Seconds)
	assert.Error(t, err)
}

func TestBoundedRandom_DurationWithinBounds(t *testing.T) {
	d, err := dispatcher.NewBoundedRandom(2, 6, order.Seconds)
	require.NoError(t, err)

	o := order.NewOrder(1, "Burger", order.Hot, 300, 0.5, order.Seconds)
	for i := 0; i < 100; i++ {
		driver, err := d.DispatchDriver(o)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, driver.Duration, 2)
		assert.LessOrEqual(t, driver.Duration, 6)
		assert.Equal(t, order.Seconds, driver.TimeUnit)
		assert.Same(t, o, driver.Order)
	}
}

func TestBoundedRandom_FixedBoundsAlwaysReturnSameDuration(t *testing.T) {
	d, err := dispatcher.NewBoundedRandom(4, 4, order.Seconds)
	require.NoError(t, err)

	o := order.NewOrder(2, "Burger", order.Hot, 300, 0.5, order.Seconds)
	driver, err := d.DispatchDriver(o)
	require.NoError(t, err)
	assert.Equal(t, 4, driver.Duration)
}
