package stats

import (
	"fmt"
	"math"

	"ga4dash/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the confidence level used by the dashboards
const DefaultConfidence = 0.95

// Interval is a confidence interval for a conversion rate, in percent.
// EstimatePct is the raw observed rate, not the Wilson-centered estimate.
type Interval struct {
	EstimatePct float64 `json:"estimate_pct"`
	LowerPct    float64 `json:"lower_pct"`
	UpperPct    float64 `json:"upper_pct"`
	Confidence  float64 `json:"confidence"`
}

// Width returns UpperPct - LowerPct
func (i Interval) Width() float64 {
	return i.UpperPct - i.LowerPct
}

// Overlaps reports whether the two intervals share any point
func (i Interval) Overlaps(other Interval) bool {
	return i.LowerPct <= other.UpperPct && other.LowerPct <= i.UpperPct
}

// Contains reports whether pct lies within the bounds
func (i Interval) Contains(pct float64) bool {
	return pct >= i.LowerPct && pct <= i.UpperPct
}

// ZScore returns the two-sided standard normal quantile for a confidence level
func ZScore(confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("%w: got %v", core.ErrInvalidConfidence, confidence)
	}
	return distuv.UnitNormal.Quantile((1 + confidence) / 2), nil
}

// WilsonInterval computes the Wilson score interval for successes/total.
//
// A zero total yields the zero interval (0, 0, 0) rather than an error.
// The confidence level and counts are validated first, so (5, 0) or an
// out-of-range confidence still fail.
// Bounds are clamped to [0, 1] before conversion to percent.
func WilsonInterval(successes, total int, confidence float64) (Interval, error) {
	z, err := ZScore(confidence)
	if err != nil {
		return Interval{}, err
	}
	if successes < 0 || total < 0 || successes > total {
		return Interval{}, core.NewCountError(successes, total)
	}
	if total == 0 {
		return Interval{Confidence: confidence}, nil
	}

	n := float64(total)
	p := float64(successes) / n
	z2 := z * z

	denominator := 1 + z2/n
	center := (p + z2/(2*n)) / denominator
	margin := z * math.Sqrt((p*(1-p)+z2/(4*n))/n) / denominator

	lower := clamp01(center - margin)
	upper := clamp01(center + margin)
	// The closed form leaves rounding residue at the extremes, where the
	// bound is exactly the observed rate.
	if successes == 0 {
		lower = 0
	}
	if successes == total {
		upper = 1
	}

	return Interval{
		EstimatePct: p * 100,
		LowerPct:    lower * 100,
		UpperPct:    upper * 100,
		Confidence:  confidence,
	}, nil
}

// WilsonForOutcome is WilsonInterval over a SegmentOutcome
func WilsonForOutcome(o SegmentOutcome, confidence float64) (Interval, error) {
	return WilsonInterval(o.Successes, o.Total, confidence)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
