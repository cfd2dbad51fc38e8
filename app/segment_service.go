package app

import (
	"context"
	"fmt"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/domain/stats"
	"ga4dash/internal"
	"ga4dash/ports"
)

// SegmentService runs the conversion-rate statistics over mart segments
type SegmentService struct {
	source     ports.MartSource
	confidence float64
	alpha      float64
	logger     *internal.Logger
}

// SegmentReport lists every segment of a mart with a cross-segment summary
type SegmentReport struct {
	Mart     core.MartKey       `json:"mart"`
	Schema   mart.SegmentSchema `json:"schema"`
	Segments []Segment          `json:"segments"`
	Summary  RateSummary        `json:"summary"`
}

// Comparison is the statistical contrast of two segments
type Comparison struct {
	A                Segment               `json:"a"`
	B                Segment               `json:"b"`
	Test             stats.TestResult      `json:"test"`
	Alpha            float64               `json:"alpha"`
	Significant      bool                  `json:"significant"`
	CohensH          float64               `json:"cohens_h"`
	Effect           stats.EffectMagnitude `json:"effect"`
	DifferencePts    float64               `json:"difference_pts"`
	LiftPct          float64               `json:"lift_pct"`
	IntervalsOverlap bool                  `json:"intervals_overlap"`
}

// IndependenceReport is the r×2 test across all segments of a mart
type IndependenceReport struct {
	Mart        core.MartKey     `json:"mart"`
	Segments    []Segment        `json:"segments"`
	Test        stats.TestResult `json:"test"`
	Alpha       float64          `json:"alpha"`
	Significant bool             `json:"significant"`
}

// NewSegmentService creates a segment service. confidence is the Wilson
// interval level and alpha the significance threshold.
func NewSegmentService(source ports.MartSource, confidence, alpha float64, logger *internal.Logger) *SegmentService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SegmentService{
		source:     source,
		confidence: confidence,
		alpha:      alpha,
		logger:     logger,
	}
}

// Confidence returns the interval level in use
func (s *SegmentService) Confidence() float64 {
	return s.confidence
}

// Alpha returns the significance threshold in use
func (s *SegmentService) Alpha() float64 {
	return s.alpha
}

// ResolveSchema returns override when it is set, else the built-in schema
func ResolveSchema(key core.MartKey, override *mart.SegmentSchema) (mart.SegmentSchema, error) {
	if override != nil && *override != (mart.SegmentSchema{}) {
		return *override, nil
	}
	schema, ok := mart.SchemaFor(key)
	if !ok {
		return mart.SegmentSchema{}, fmt.Errorf("%w: mart %s has no built-in segment schema", core.ErrInvalidValue, key)
	}
	return schema, nil
}

// Segments loads a mart and extracts its segments
func (s *SegmentService) Segments(ctx context.Context, key core.MartKey, override *mart.SegmentSchema) (*SegmentReport, error) {
	schema, err := ResolveSchema(key, override)
	if err != nil {
		return nil, err
	}
	table, err := s.source.Table(ctx, key)
	if err != nil {
		return nil, err
	}
	segments, err := ExtractSegments(table, schema, s.confidence)
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(segments)
	if err != nil {
		return nil, err
	}
	return &SegmentReport{
		Mart:     key,
		Schema:   schema,
		Segments: segments,
		Summary:  summary,
	}, nil
}

// Compare contrasts the segments matching labelA and labelB in a mart
func (s *SegmentService) Compare(ctx context.Context, key core.MartKey, labelA, labelB string, override *mart.SegmentSchema) (*Comparison, error) {
	report, err := s.Segments(ctx, key, override)
	if err != nil {
		return nil, err
	}
	a, err := FindSegment(report.Segments, labelA)
	if err != nil {
		return nil, err
	}
	b, err := FindSegment(report.Segments, labelB)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("[SegmentService] comparing %s: %q vs %q", key, a.Label, b.Label)
	return s.CompareSegments(a, b)
}

// CompareSegments runs the chi-square test, Cohen's h and the interval
// overlap check on two segments. Cohen's h uses the reported rates.
func (s *SegmentService) CompareSegments(a, b Segment) (*Comparison, error) {
	test, err := stats.ChiSquareTest(a.Outcome.Successes, a.Outcome.Total, b.Outcome.Successes, b.Outcome.Total)
	if err != nil {
		return nil, fmt.Errorf("comparing %q and %q: %w", a.Label, b.Label, err)
	}
	h, err := stats.CohensH(a.ReportedRatePct/100, b.ReportedRatePct/100)
	if err != nil {
		return nil, fmt.Errorf("comparing %q and %q: %w", a.Label, b.Label, err)
	}

	lift := 0.0
	if b.ReportedRatePct != 0 {
		lift = (a.ReportedRatePct - b.ReportedRatePct) / b.ReportedRatePct * 100
	}

	return &Comparison{
		A:                a,
		B:                b,
		Test:             test,
		Alpha:            s.alpha,
		Significant:      test.Significant(s.alpha),
		CohensH:          h,
		Effect:           stats.ClassifyEffect(h),
		DifferencePts:    a.ReportedRatePct - b.ReportedRatePct,
		LiftPct:          lift,
		IntervalsOverlap: a.Interval.Overlaps(b.Interval),
	}, nil
}

// CompareCounts contrasts two raw outcome counts
func (s *SegmentService) CompareCounts(a, b stats.SegmentOutcome) (*Comparison, error) {
	segA, err := s.segmentFromOutcome(a)
	if err != nil {
		return nil, err
	}
	segB, err := s.segmentFromOutcome(b)
	if err != nil {
		return nil, err
	}
	return s.CompareSegments(segA, segB)
}

func (s *SegmentService) segmentFromOutcome(o stats.SegmentOutcome) (Segment, error) {
	interval, err := stats.WilsonForOutcome(o, s.confidence)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Label: o.Label, Outcome: o, ReportedRatePct: o.RatePct(), Interval: interval}, nil
}

// Independence tests whether conversion is independent of segment across
// every segment of a mart (r×2 table, r-1 degrees of freedom)
func (s *SegmentService) Independence(ctx context.Context, key core.MartKey, override *mart.SegmentSchema) (*IndependenceReport, error) {
	report, err := s.Segments(ctx, key, override)
	if err != nil {
		return nil, err
	}
	test, err := stats.IndependenceTest(Outcomes(report.Segments))
	if err != nil {
		return nil, fmt.Errorf("mart %s: %w", key, err)
	}
	return &IndependenceReport{
		Mart:        key,
		Segments:    report.Segments,
		Test:        test,
		Alpha:       s.alpha,
		Significant: test.Significant(s.alpha),
	}, nil
}
