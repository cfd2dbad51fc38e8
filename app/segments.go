package app

import (
	"fmt"
	"math"
	"strings"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/domain/stats"
)

// rateEpsilon absorbs binary representation error in sessions×rate/100,
// e.g. 100000 sessions at 0.57% evaluating just below 570.
const rateEpsilon = 1e-9

// Segment is one mart row turned into an outcome count with its interval
type Segment struct {
	Label           string               `json:"label"`
	Outcome         stats.SegmentOutcome `json:"outcome"`
	ReportedRatePct float64              `json:"reported_rate_pct"`
	Interval        stats.Interval       `json:"interval"`
}

// OutcomeFromRate derives an outcome count from a session total and a
// conversion rate in percent. Conversions are truncated toward zero after
// adding rateEpsilon, so a product such as 569.9999999999999 counts as 570
// where a plain int() truncation would give 569. Values genuinely below the
// next integer, such as 569.99, still truncate.
func OutcomeFromRate(label string, sessions int, ratePct float64) (stats.SegmentOutcome, error) {
	if sessions < 0 || math.IsNaN(ratePct) || ratePct < 0 || ratePct > 100 {
		return stats.SegmentOutcome{}, fmt.Errorf("%w: segment %q sessions=%d rate=%v%%", core.ErrInvalidCount, label, sessions, ratePct)
	}
	successes := int(math.Floor(float64(sessions)*ratePct/100 + rateEpsilon))
	if successes > sessions {
		successes = sessions
	}
	return stats.SegmentOutcome{Label: label, Successes: successes, Total: sessions}, nil
}

// ExtractSegments turns every row of table into a Segment using schema
func ExtractSegments(table *mart.Table, schema mart.SegmentSchema, confidence float64) ([]Segment, error) {
	if !schema.Valid() {
		return nil, fmt.Errorf("%w: segment schema needs label, total and one of rate or success columns", core.ErrInvalidValue)
	}
	if err := table.RequireColumns(schema.LabelColumn, schema.TotalColumn, schema.RateColumn, schema.SuccessColumn); err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(table.Records))
	for _, record := range table.Records {
		seg, err := segmentFromRecord(record, schema, confidence)
		if err != nil {
			return nil, fmt.Errorf("mart %s: %w", table.Name, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func segmentFromRecord(record mart.Record, schema mart.SegmentSchema, confidence float64) (Segment, error) {
	label, err := record.String(schema.LabelColumn)
	if err != nil {
		return Segment{}, err
	}
	total, err := record.Int(schema.TotalColumn)
	if err != nil {
		return Segment{}, err
	}

	var outcome stats.SegmentOutcome
	var reported float64
	if schema.RateColumn != "" {
		reported, err = record.Float(schema.RateColumn)
		if err != nil {
			return Segment{}, err
		}
		outcome, err = OutcomeFromRate(label, total, reported)
		if err != nil {
			return Segment{}, err
		}
	} else {
		successes, err := record.Int(schema.SuccessColumn)
		if err != nil {
			return Segment{}, err
		}
		outcome = stats.SegmentOutcome{Label: label, Successes: successes, Total: total}
		reported = outcome.RatePct()
	}

	interval, err := stats.WilsonForOutcome(outcome, confidence)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q: %w", label, err)
	}

	return Segment{
		Label:           label,
		Outcome:         outcome,
		ReportedRatePct: reported,
		Interval:        interval,
	}, nil
}

// FindSegment matches label exactly (case-insensitive) and falls back to the
// first segment whose label contains it
func FindSegment(segments []Segment, label string) (Segment, error) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return Segment{}, fmt.Errorf("%w: empty label", core.ErrSegmentNotFound)
	}
	for _, s := range segments {
		if strings.ToLower(s.Label) == needle {
			return s, nil
		}
	}
	for _, s := range segments {
		if strings.Contains(strings.ToLower(s.Label), needle) {
			return s, nil
		}
	}
	return Segment{}, fmt.Errorf("%w: %q", core.ErrSegmentNotFound, label)
}

// Outcomes returns the outcome counts of segments in order
func Outcomes(segments []Segment) []stats.SegmentOutcome {
	out := make([]stats.SegmentOutcome, len(segments))
	for i, s := range segments {
		out[i] = s.Outcome
	}
	return out
}
