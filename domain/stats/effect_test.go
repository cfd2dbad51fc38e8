package stats

import (
	"math"
	"testing"

	"ga4dash/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohensH_ZeroAndSymmetry(t *testing.T) {
	for _, p := range []float64{0, 0.025, 0.13, 0.5, 0.99, 1} {
		h, err := CohensH(p, p)
		require.NoError(t, err)
		assert.Equal(t, 0.0, h)
	}

	pairs := [][2]float64{{0.13, 0.025}, {0.5, 0.2}, {0, 0.7}}
	for _, pair := range pairs {
		ab, err := CohensH(pair[0], pair[1])
		require.NoError(t, err)
		ba, err := CohensH(pair[1], pair[0])
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestCohensH_Bounds(t *testing.T) {
	h, err := CohensH(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, h, 1e-12)
}

func TestCohensH_KnownValues(t *testing.T) {
	h, err := CohensH(0.13, 0.025)
	require.NoError(t, err)
	assert.InDelta(t, 0.4201655, h, 1e-6)
	assert.Equal(t, EffectMedium, ClassifyEffect(h))

	h, err = CohensH(0.5, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 0.6435011, h, 1e-6)
}

func TestCohensH_MonotonicAwayFromReference(t *testing.T) {
	const p2 = 0.1

	prev := 0.0
	for p1 := 0.11; p1 <= 1.0; p1 += 0.01 {
		h, err := CohensH(p1, p2)
		require.NoError(t, err)
		assert.Greater(t, h, prev, "p1=%v", p1)
		prev = h
	}

	prev = 0.0
	for p1 := 0.09; p1 >= 0; p1 -= 0.01 {
		h, err := CohensH(p1, p2)
		require.NoError(t, err)
		assert.Greater(t, h, prev, "p1=%v", p1)
		prev = h
	}
}

func TestCohensH_InvalidProportion(t *testing.T) {
	for _, p := range []float64{-0.01, 1.01, math.NaN()} {
		_, err := CohensH(p, 0.5)
		assert.ErrorIs(t, err, core.ErrInvalidProportion)
		_, err = CohensH(0.5, p)
		assert.ErrorIs(t, err, core.ErrInvalidProportion)
	}
}

func TestClassifyEffect(t *testing.T) {
	tests := []struct {
		h    float64
		want EffectMagnitude
	}{
		{0, EffectNegligible},
		{0.05, EffectNegligible},
		{0.2, EffectSmall},
		{0.34, EffectSmall},
		{0.42, EffectMedium},
		{0.5, EffectMedium},
		{0.8, EffectLarge},
		{math.Pi, EffectLarge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyEffect(tt.h), "h=%v", tt.h)
	}
}

func TestEndToEnd_SegmentContrast(t *testing.T) {
	a := SegmentOutcome{Label: "A", Successes: 130, Total: 1000}
	b := SegmentOutcome{Label: "B", Successes: 25, Total: 1000}

	res, err := ChiSquareTest(a.Successes, a.Total, b.Successes, b.Total)
	require.NoError(t, err)
	assert.Greater(t, res.Statistic, 50.0)
	assert.Less(t, res.PValue, 0.01)

	ciA, err := WilsonForOutcome(a, DefaultConfidence)
	require.NoError(t, err)
	ciB, err := WilsonForOutcome(b, DefaultConfidence)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, ciA.LowerPct, 0.1)
	assert.InDelta(t, 15.2, ciA.UpperPct, 0.1)
	assert.InDelta(t, 1.7, ciB.LowerPct, 0.1)
	assert.InDelta(t, 3.6, ciB.UpperPct, 0.1)
	assert.False(t, ciA.Overlaps(ciB))

	h, err := CohensHForOutcomes(a, b)
	require.NoError(t, err)
	assert.True(t, h >= 0.35 && h <= 0.45, "h=%v", h)
}

func TestSegmentOutcome(t *testing.T) {
	o, err := NewSegmentOutcome("x", 3, 12)
	require.NoError(t, err)
	assert.Equal(t, 9, o.Failures())
	assert.InDelta(t, 25.0, o.RatePct(), 1e-12)

	_, err = NewSegmentOutcome("empty", 0, 0)
	assert.ErrorIs(t, err, core.ErrInvalidCount)

	assert.Equal(t, 0.0, SegmentOutcome{}.Rate())
}
