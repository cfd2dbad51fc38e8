package app

import (
	"context"
	"fmt"
	"sort"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/domain/stats"
	"ga4dash/ports"
)

// overallStages are the funnel_overall count columns in funnel order
var overallStages = []struct {
	Column string
	Name   string
}{
	{"total_sessions", "session_start"},
	{"step1_view_item", "view_item"},
	{"step2_add_to_cart", "add_to_cart"},
	{"step3_begin_checkout", "begin_checkout"},
	{"step4_add_payment_info", "add_payment_info"},
	{"step5_purchase", "purchase"},
}

// Severity grades a funnel step by its drop rate
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// Drop rate thresholds, in percent
const (
	criticalDropPct = 60.0
	moderateDropPct = 30.0
)

// ClassifyDrop grades a drop rate in percent
func ClassifyDrop(dropPct float64) Severity {
	switch {
	case dropPct+rateEpsilon >= criticalDropPct:
		return SeverityCritical
	case dropPct+rateEpsilon >= moderateDropPct:
		return SeverityModerate
	default:
		return SeverityHealthy
	}
}

// FunnelStep is the transition from one funnel stage to the next
type FunnelStep struct {
	Step          string         `json:"step"`
	From          int            `json:"from"`
	To            int            `json:"to"`
	Dropped       int            `json:"dropped"`
	ConversionPct float64        `json:"conversion_pct"`
	DropRatePct   float64        `json:"drop_rate_pct"`
	Severity      Severity       `json:"severity"`
	Interval      stats.Interval `json:"interval"`
}

// FunnelOverview holds the headline funnel KPIs
type FunnelOverview struct {
	TotalSessions int            `json:"total_sessions"`
	Purchases     int            `json:"purchases"`
	PurchasePct   float64        `json:"purchase_pct"`
	Interval      stats.Interval `json:"interval"`
	Stages        []FunnelStep   `json:"stages"`
}

// FunnelReport combines the per-step drop-off with the overview
type FunnelReport struct {
	Steps       []FunnelStep    `json:"steps"`
	Bottlenecks []FunnelStep    `json:"bottlenecks"`
	Overview    *FunnelOverview `json:"overview,omitempty"`
}

// FunnelService analyses the funnel marts
type FunnelService struct {
	source      ports.MartSource
	confidence  float64
	bottlenecks int
}

// NewFunnelService creates a funnel service reporting the given number of
// bottleneck steps
func NewFunnelService(source ports.MartSource, confidence float64, bottlenecks int) *FunnelService {
	if bottlenecks < 1 {
		bottlenecks = 2
	}
	return &FunnelService{source: source, confidence: confidence, bottlenecks: bottlenecks}
}

// Funnel builds the step report from funnel_dropoff and, when present,
// the overview from funnel_overall
func (s *FunnelService) Funnel(ctx context.Context) (*FunnelReport, error) {
	table, err := s.source.Table(ctx, mart.FunnelDropoff)
	if err != nil {
		return nil, err
	}
	steps, err := s.dropoffSteps(table)
	if err != nil {
		return nil, err
	}

	report := &FunnelReport{
		Steps:       steps,
		Bottlenecks: topDrops(steps, s.bottlenecks),
	}

	overall, err := s.source.Table(ctx, mart.FunnelOverall)
	switch {
	case err == nil:
		report.Overview, err = s.Overview(overall)
		if err != nil {
			return nil, err
		}
	case core.IsNotFoundError(err):
		// overview is optional
	default:
		return nil, err
	}
	return report, nil
}

// Overview reads the single funnel_overall row
func (s *FunnelService) Overview(table *mart.Table) (*FunnelOverview, error) {
	if len(table.Records) == 0 {
		return nil, fmt.Errorf("%w: mart %s has no rows", core.ErrInvalidValue, table.Name)
	}
	columns := make([]string, len(overallStages))
	for i, st := range overallStages {
		columns[i] = st.Column
	}
	if err := table.RequireColumns(columns...); err != nil {
		return nil, err
	}

	row := table.Records[0]
	counts := make([]int, len(overallStages))
	for i, st := range overallStages {
		n, err := row.Int(st.Column)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}

	stages := make([]FunnelStep, 0, len(counts)-1)
	for i := 1; i < len(counts); i++ {
		step, err := s.step(overallStages[i-1].Name+"_to_"+overallStages[i].Name, counts[i-1], counts[i])
		if err != nil {
			return nil, err
		}
		stages = append(stages, step)
	}

	total, purchases := counts[0], counts[len(counts)-1]
	interval, err := stats.WilsonInterval(purchases, total, s.confidence)
	if err != nil {
		return nil, err
	}
	return &FunnelOverview{
		TotalSessions: total,
		Purchases:     purchases,
		PurchasePct:   interval.EstimatePct,
		Interval:      interval,
		Stages:        stages,
	}, nil
}

func (s *FunnelService) dropoffSteps(table *mart.Table) ([]FunnelStep, error) {
	schema, _ := mart.SchemaFor(mart.FunnelDropoff)
	if err := table.RequireColumns(schema.LabelColumn, schema.TotalColumn, schema.SuccessColumn); err != nil {
		return nil, err
	}

	steps := make([]FunnelStep, 0, len(table.Records))
	for _, r := range table.Records {
		name, err := r.String(schema.LabelColumn)
		if err != nil {
			return nil, err
		}
		from, err := r.Int(schema.TotalColumn)
		if err != nil {
			return nil, err
		}
		to, err := r.Int(schema.SuccessColumn)
		if err != nil {
			return nil, err
		}
		step, err := s.step(name, from, to)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s *FunnelService) step(name string, from, to int) (FunnelStep, error) {
	interval, err := stats.WilsonInterval(to, from, s.confidence)
	if err != nil {
		return FunnelStep{}, fmt.Errorf("funnel step %s: %w", name, err)
	}
	drop := 0.0
	if from > 0 {
		drop = 100 - interval.EstimatePct
	}
	return FunnelStep{
		Step:          name,
		From:          from,
		To:            to,
		Dropped:       from - to,
		ConversionPct: interval.EstimatePct,
		DropRatePct:   drop,
		Severity:      ClassifyDrop(drop),
		Interval:      interval,
	}, nil
}

// topDrops returns the n steps with the highest drop rate
func topDrops(steps []FunnelStep, n int) []FunnelStep {
	sorted := make([]FunnelStep, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DropRatePct > sorted[j].DropRatePct
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
