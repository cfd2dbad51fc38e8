package stats

import (
	"fmt"
	"math"

	"ga4dash/domain/core"
)

// EffectMagnitude is an interpretive label for Cohen's h
type EffectMagnitude string

const (
	EffectNegligible EffectMagnitude = "negligible"
	EffectSmall      EffectMagnitude = "small"
	EffectMedium     EffectMagnitude = "medium"
	EffectLarge      EffectMagnitude = "large"
)

// Cohen's benchmarks for h
const (
	SmallEffect  = 0.2
	MediumEffect = 0.5
	LargeEffect  = 0.8
)

// CohensH returns |2·asin(√p1) − 2·asin(√p2)| for two proportions in [0, 1].
// The result lies in [0, π].
func CohensH(p1, p2 float64) (float64, error) {
	if err := checkProportion(p1); err != nil {
		return 0, err
	}
	if err := checkProportion(p2); err != nil {
		return 0, err
	}
	return math.Abs(arcsineTransform(p1) - arcsineTransform(p2)), nil
}

// CohensHForOutcomes is CohensH over the observed rates of two outcomes
func CohensHForOutcomes(a, b SegmentOutcome) (float64, error) {
	return CohensH(a.Rate(), b.Rate())
}

// ClassifyEffect labels h by the nearest of Cohen's benchmarks. Values below
// half the small benchmark are negligible.
func ClassifyEffect(h float64) EffectMagnitude {
	h = math.Abs(h)
	switch {
	case h < SmallEffect/2:
		return EffectNegligible
	case h < (SmallEffect+MediumEffect)/2:
		return EffectSmall
	case h < (MediumEffect+LargeEffect)/2:
		return EffectMedium
	default:
		return EffectLarge
	}
}

func arcsineTransform(p float64) float64 {
	return 2 * math.Asin(math.Sqrt(p))
}

func checkProportion(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: got %v", core.ErrInvalidProportion, p)
	}
	return nil
}
