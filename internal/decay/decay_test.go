package decay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kitchensim/internal/decay"
)

func TestFreshness_Zero(t *testing.T) {
	assert.Equal(t, 300.0, decay.Freshness(300, 0.45, 0))
}

func TestFreshness_ClampsAtZero(t *testing.T) {
	assert.Equal(t, 0.0, decay.Freshness(300, 0.45, 1000))
}

func TestFreshness_NeverNegative(t *testing.T) {
	for age := 0.0; age < 2000; age += 37 {
		assert.GreaterOrEqual(t, decay.Freshness(300, 0.45, age), 0.0)
	}
}

func TestFreshness_Monotonic(t *testing.T) {
	prev := decay.Freshness(300, 0.45, 0)
	for age := 1.0; age < 500; age++ {
		cur := decay.Freshness(300, 0.45, age)
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestLifetime_MatchesSpecExample(t *testing.T) {
	lifetime := decay.Lifetime(300, 0.45)
	assert.InDelta(t, 206.8966, lifetime, 0.001)
	assert.LessOrEqual(t, decay.Freshness(300, 0.45, 207), 0.0)
}

func TestLifetime_ZeroIffFreshnessZero(t *testing.T) {
	lifetime := decay.Lifetime(300, 0.45)
	assert.Greater(t, decay.Freshness(300, 0.45, lifetime-1), 0.0)
	assert.Equal(t, 0.0, decay.Freshness(300, 0.45, lifetime))
}
