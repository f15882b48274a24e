package window

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		parsed, err := ParseType(" " + string(typ) + " ")
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}
	parsed, err := ParseType("HANN")
	require.NoError(t, err)
	require.Equal(t, TypeHann, parsed)

	_, err = ParseType("kaiser")
	require.Error(t, err)
}

func TestPeriodic(t *testing.T) {
	t.Run("Hann", func(t *testing.T) {
		w, err := TypeHann.Periodic(8)
		require.NoError(t, err)
		for n, v := range w {
			expected := 0.5 * (1 - math.Cos(2*math.Pi*float64(n)/8))
			assert.InDelta(t, expected, float64(v), 1e-6, spew.Sdump(w))
		}
	})

	t.Run("SqrtHann", func(t *testing.T) {
		hann, err := TypeHann.Periodic(16)
		require.NoError(t, err)
		sqrtHann, err := TypeSqrtHann.Periodic(16)
		require.NoError(t, err)
		for i := range hann {
			assert.InDelta(t, float64(hann[i]), float64(sqrtHann[i]*sqrtHann[i]), 1e-6)
		}
	})

	t.Run("Rectangular", func(t *testing.T) {
		w, err := TypeRectangular.Periodic(5)
		require.NoError(t, err)
		require.Equal(t, []float32{1, 1, 1, 1, 1}, w)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := TypeHann.Periodic(0)
		require.Error(t, err)
		_, err = Type("triangle").Periodic(4)
		require.Error(t, err)
	})
}

func TestCOLAScale(t *testing.T) {
	hann, err := TypeHann.Periodic(400)
	require.NoError(t, err)
	sqrtHann, err := TypeSqrtHann.Periodic(400)
	require.NoError(t, err)
	rect, err := TypeRectangular.Periodic(400)
	require.NoError(t, err)

	t.Run("HannAnalysisRectSynthesis", func(t *testing.T) {
		scale, ok := COLAScale(hann, rect, 200, 1e-6)
		require.True(t, ok)
		assert.InDelta(t, 1, scale, 1e-6)
	})

	t.Run("SqrtHannPair", func(t *testing.T) {
		scale, ok := COLAScale(sqrtHann, sqrtHann, 200, 1e-6)
		require.True(t, ok)
		assert.InDelta(t, 1, scale, 1e-5)
	})

	t.Run("HannSquaredHalfOverlap", func(t *testing.T) {
		_, ok := COLAScale(hann, hann, 200, 1e-6)
		require.False(t, ok)
	})

	t.Run("HannSquaredQuarterOverlap", func(t *testing.T) {
		scale, ok := COLAScale(hann, hann, 100, 1e-6)
		require.True(t, ok)
		assert.InDelta(t, 1/1.5, scale, 1e-6)
	})
}
