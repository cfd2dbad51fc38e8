// Package stats holds the conversion-rate statistics shared by every dashboard
// variant: the chi-square independence test, the Wilson score interval and
// Cohen's h. All functions are pure and safe for concurrent use.
package stats

import (
	"ga4dash/domain/core"
)

// SegmentOutcome is a binomial outcome count for one segment: how many
// sessions converted out of how many sessions in total.
type SegmentOutcome struct {
	Label     string `json:"label,omitempty"`
	Successes int    `json:"successes"`
	Total     int    `json:"total"`
}

// NewSegmentOutcome creates a validated outcome count
func NewSegmentOutcome(label string, successes, total int) (SegmentOutcome, error) {
	o := SegmentOutcome{Label: label, Successes: successes, Total: total}
	if err := o.validate(true); err != nil {
		return SegmentOutcome{}, err
	}
	return o, nil
}

// Validate checks 0 <= successes <= total and total > 0
func (o SegmentOutcome) Validate() error {
	return o.validate(true)
}

func (o SegmentOutcome) validate(requireTotal bool) error {
	if o.Successes < 0 || o.Total < 0 || o.Successes > o.Total {
		return core.NewCountError(o.Successes, o.Total)
	}
	if requireTotal && o.Total == 0 {
		return core.NewCountError(o.Successes, o.Total)
	}
	return nil
}

// Failures returns total - successes
func (o SegmentOutcome) Failures() int {
	return o.Total - o.Successes
}

// Rate returns the proportion successes/total, or 0 when total is 0
func (o SegmentOutcome) Rate() float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(o.Successes) / float64(o.Total)
}

// RatePct returns Rate as a percentage
func (o SegmentOutcome) RatePct() float64 {
	return o.Rate() * 100
}
