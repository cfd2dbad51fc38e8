package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ga4dash/app"
	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/internal"
	"ga4dash/ports"
)

// Service assembles report variants from the segment and funnel services
type Service struct {
	source   ports.MartSource
	segments *app.SegmentService
	funnel   *app.FunnelService
	logger   *internal.Logger
	now      func() time.Time
}

// NewService creates a report service
func NewService(source ports.MartSource, segments *app.SegmentService, funnel *app.FunnelService, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Service{
		source:   source,
		segments: segments,
		funnel:   funnel,
		logger:   logger,
		now:      time.Now,
	}
}

type sectionBuilder struct {
	heading string
	build   func(ctx context.Context, g *generation, w *writer) error
}

// generation holds state shared by the sections of one report
type generation struct {
	svc       *Service
	funnel    *app.FunnelReport
	funnelErr error
	funnelSet bool
}

func (g *generation) funnelReport(ctx context.Context) (*app.FunnelReport, error) {
	if !g.funnelSet {
		g.funnel, g.funnelErr = g.svc.funnel.Funnel(ctx)
		g.funnelSet = true
	}
	return g.funnel, g.funnelErr
}

var titles = map[Variant]string{
	Executive:   "Executive Summary",
	Segments:    "Segment Validation",
	Funnel:      "Conversion Funnel",
	Methodology: "Methodology & Limitations",
}

// Generate builds one report variant
func (s *Service) Generate(ctx context.Context, variant Variant) (*Report, error) {
	builders, err := s.sectionsFor(variant)
	if err != nil {
		return nil, err
	}

	source, err := s.source.Source(ctx)
	if err != nil {
		if isCanceled(err) {
			return nil, err
		}
		s.logger.Warn("[Report] data source unavailable: %v", err)
		source = "unavailable"
	}

	report := &Report{
		ID:          core.NewReportID(),
		Variant:     variant,
		Title:       titles[variant],
		Source:      source,
		GeneratedAt: s.now(),
		Sections:    make([]Section, 0, len(builders)),
	}

	g := &generation{svc: s}
	for _, b := range builders {
		w := newWriter()
		if err := b.build(ctx, g, w); err != nil {
			if isCanceled(err) {
				return nil, err
			}
			s.logger.Warn("[Report] %s/%s: %v", variant, b.heading, err)
			report.Sections = append(report.Sections, unavailableSection(b.heading, err))
			continue
		}
		report.Sections = append(report.Sections, Section{Heading: b.heading, Body: w.String()})
	}

	s.logger.Info("[Report] generated %s report %s (%d/%d sections with data)", variant, report.ID, report.Available(), len(report.Sections))
	return report, nil
}

func (s *Service) sectionsFor(variant Variant) ([]sectionBuilder, error) {
	switch variant {
	case Executive:
		return []sectionBuilder{
			{"Headline KPIs", headlineSection},
			{"Key Segment Contrast", segmentContrastSection(mart.BrowsingStyle)},
			{"Cart Abandonment Exposure", cartAbandonSection},
		}, nil
	case Segments:
		return []sectionBuilder{
			{"Browsing Style", segmentValidationSection(mart.BrowsingStyle)},
			{"Depth Segments", segmentValidationSection(mart.DeepSpecialists)},
			{"Traffic Source", segmentValidationSection(mart.FunnelSource)},
		}, nil
	case Funnel:
		return []sectionBuilder{
			{"Overall Funnel", overallFunnelSection},
			{"Step Drop-off", dropoffSection},
			{"Bottlenecks", bottleneckSection},
			{"Device", segmentValidationSection(mart.FunnelDevice)},
			{"Day of Week", segmentValidationSection(mart.FunnelDay)},
			{"Hour of Day", segmentValidationSection(mart.FunnelHour)},
		}, nil
	case Methodology:
		return []sectionBuilder{
			{"Statistical Tests", methodologySection},
			{"Interpretation Thresholds", thresholdSection},
			{"Data Coverage", coverageSection},
			{"Data Quality", dataQualitySection},
		}, nil
	default:
		return nil, core.NewNotFoundError("report variant", string(variant))
	}
}

func unavailableSection(heading string, err error) Section {
	reason := "the source data could not be analysed"
	switch {
	case core.IsNotFoundError(err):
		reason = "the required mart is not loaded"
	case core.IsDegenerateError(err):
		reason = "the data is too sparse for the test"
	case core.IsInputError(err):
		reason = "the mart contains invalid values"
	}
	return Section{
		Heading:     heading,
		Body:        fmt.Sprintf("> **Data unavailable:** %s (%s).", reason, cell(err.Error())),
		Unavailable: true,
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
