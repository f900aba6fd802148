package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPow(t *testing.T) {
	t.Run("regular", func(t *testing.T) {
		v, err := Pow(4, 0.5)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, v, 1e-12)
	})
	t.Run("negative_base_integer_exponent", func(t *testing.T) {
		v, err := Pow(-2, 3)
		require.NoError(t, err)
		assert.Equal(t, -8.0, v)
	})
	t.Run("negative_base_fractional_exponent", func(t *testing.T) {
		_, err := Pow(-10, 1.5)
		require.ErrorIs(t, err, ErrDomain)
	})
	t.Run("zero_negative_exponent", func(t *testing.T) {
		_, err := Pow(0, -1)
		require.ErrorIs(t, err, ErrDomain)
	})
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite())
	assert.True(t, Finite(0, -1, 1e300))
	assert.False(t, Finite(1, math.NaN()))
	assert.False(t, Finite(math.Inf(-1)))
}

func TestLogspace(t *testing.T) {
	got := Logspace(1, 1000, 4)
	want := []float64{1, 10, 100, 1000}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "i=%d", i)
	}

	assert.Nil(t, Logspace(0, 10, 5), "non-positive bound")
	assert.Nil(t, Logspace(1, 10, 0))
	assert.Equal(t, []float64{3}, Logspace(3, 10, 1))
}

func TestLogspace_Monotonic(t *testing.T) {
	xs := Logspace(0.5, 2000, 200)
	for i := 1; i < len(xs); i++ {
		assert.Greater(t, xs[i], xs[i-1], "i=%d", i)
	}
	assert.Equal(t, 0.5, xs[0])
	assert.Equal(t, 2000.0, xs[len(xs)-1])
}

func TestMinMaxPositive(t *testing.T) {
	lo, hi, ok := MinMaxPositive([]float64{-3, 0, 5, 2, math.NaN(), 9})
	require.True(t, ok)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 9.0, hi)

	_, _, ok = MinMaxPositive([]float64{-1, 0})
	assert.False(t, ok)
}
