// Package profiling checks the quality of loaded mart tables: missing
// values, type consistency, duplicate rows, outliers and segment sample
// sizes.
package profiling

import (
	"fmt"
	"sort"
	"strings"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/internal"
)

// MinSegmentSessions is the session count below which a segment's interval
// is considered too wide to act on
const MinSegmentSessions = 100

// ColumnKind is the inferred type of a mart column
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
	KindEmpty   ColumnKind = "empty"
)

// missingMarkers are cell values treated as missing
var missingMarkers = map[string]bool{
	"":          true,
	"na":        true,
	"n/a":       true,
	"nan":       true,
	"null":      true,
	"(not set)": true,
}

// ColumnProfile describes one column
type ColumnProfile struct {
	Name        string          `json:"name"`
	Kind        ColumnKind      `json:"kind"`
	Count       int             `json:"count"`
	Missing     int             `json:"missing"`
	MissingRate float64         `json:"missing_rate"`
	Distinct    int             `json:"distinct"`
	Unparsable  int             `json:"unparsable,omitempty"`
	Summary     *NumericSummary `json:"summary,omitempty"`
}

// QualityCheck is one line of the data quality checklist
type QualityCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// MartProfile is the quality profile of a mart table
type MartProfile struct {
	Mart          core.MartKey    `json:"mart"`
	Rows          int             `json:"rows"`
	DuplicateRows int             `json:"duplicate_rows"`
	Columns       []ColumnProfile `json:"columns"`
	Checks        []QualityCheck  `json:"checks"`
}

// Passed reports whether every check passed
func (p *MartProfile) Passed() bool {
	for _, c := range p.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// DataProfiler profiles mart tables
type DataProfiler struct {
	analyzer *DistributionAnalyzer
	logger   *internal.Logger
}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{analyzer: NewDistributionAnalyzer(), logger: internal.DefaultLogger}
}

// WithLogger overrides the profiler's logger
func (dp *DataProfiler) WithLogger(logger *internal.Logger) *DataProfiler {
	dp.logger = logger
	return dp
}

// ProfileTable profiles every column of table and runs the checklist.
// The segment size check runs only when schema is given.
func (dp *DataProfiler) ProfileTable(table *mart.Table, schema *mart.SegmentSchema) *MartProfile {
	profile := &MartProfile{
		Mart:    table.Name,
		Rows:    len(table.Records),
		Columns: make([]ColumnProfile, 0, len(table.Columns)),
	}
	for _, column := range table.Columns {
		profile.Columns = append(profile.Columns, dp.ProfileColumn(table, column))
	}
	profile.DuplicateRows = countDuplicates(table)

	profile.Checks = []QualityCheck{
		missingCheck(profile),
		typeCheck(profile),
		duplicateCheck(profile),
		outlierCheck(profile),
	}
	if schema != nil {
		profile.Checks = append(profile.Checks, sampleSizeCheck(table, *schema))
	}
	return profile
}

// ProfileColumn infers a column's type and summarizes its values. A column
// is numeric when most of its present values parse as numbers.
func (dp *DataProfiler) ProfileColumn(table *mart.Table, column string) ColumnProfile {
	profile := ColumnProfile{Name: column, Count: len(table.Records)}
	distinct := make(map[string]struct{})
	values := make([]float64, 0, len(table.Records))

	for _, r := range table.Records {
		raw := strings.TrimSpace(r[column])
		if missingMarkers[strings.ToLower(raw)] {
			profile.Missing++
			continue
		}
		distinct[raw] = struct{}{}
		if v, err := r.Float(column); err == nil {
			values = append(values, v)
		} else {
			profile.Unparsable++
		}
	}
	profile.Distinct = len(distinct)
	if profile.Count > 0 {
		profile.MissingRate = float64(profile.Missing) / float64(profile.Count)
	}

	present := profile.Count - profile.Missing
	switch {
	case present == 0:
		profile.Kind = KindEmpty
		profile.Unparsable = 0
	case len(values) > present/2:
		profile.Kind = KindNumeric
		summary, err := dp.analyzer.Summarize(values)
		if err != nil {
			dp.logger.Warn("[DataProfiler] %s.%s: summary failed: %v", table.Name, column, err)
			break
		}
		profile.Summary = summary
	default:
		profile.Kind = KindText
		profile.Unparsable = 0
	}
	return profile
}

func countDuplicates(table *mart.Table) int {
	seen := make(map[string]struct{}, len(table.Records))
	dups := 0
	var b strings.Builder
	for _, r := range table.Records {
		b.Reset()
		for _, c := range table.Columns {
			b.WriteString(r[c])
			b.WriteByte(0)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func missingCheck(p *MartProfile) QualityCheck {
	var columns []string
	for _, c := range p.Columns {
		if c.Missing > 0 {
			columns = append(columns, fmt.Sprintf("%s (%d)", c.Name, c.Missing))
		}
	}
	if len(columns) == 0 {
		return QualityCheck{Name: "Missing values", Passed: true, Detail: "no missing cells"}
	}
	return QualityCheck{Name: "Missing values", Detail: "missing cells in " + strings.Join(columns, ", ")}
}

func typeCheck(p *MartProfile) QualityCheck {
	var columns []string
	for _, c := range p.Columns {
		if c.Kind == KindNumeric && c.Unparsable > 0 {
			columns = append(columns, fmt.Sprintf("%s (%d)", c.Name, c.Unparsable))
		}
	}
	if len(columns) == 0 {
		return QualityCheck{Name: "Type consistency", Passed: true, Detail: "numeric columns parse fully"}
	}
	return QualityCheck{Name: "Type consistency", Detail: "non-numeric values in " + strings.Join(columns, ", ")}
}

func duplicateCheck(p *MartProfile) QualityCheck {
	if p.DuplicateRows == 0 {
		return QualityCheck{Name: "Duplicate rows", Passed: true, Detail: "no duplicate rows"}
	}
	return QualityCheck{Name: "Duplicate rows", Detail: fmt.Sprintf("%d duplicate rows", p.DuplicateRows)}
}

// outlierCheck is informational; IQR outliers are expected in skewed
// e-commerce metrics
func outlierCheck(p *MartProfile) QualityCheck {
	var columns []string
	for _, c := range p.Columns {
		if c.Summary != nil && c.Summary.Outliers > 0 {
			columns = append(columns, fmt.Sprintf("%s (%d)", c.Name, c.Summary.Outliers))
		}
	}
	sort.Strings(columns)
	detail := "no IQR outliers"
	if len(columns) > 0 {
		detail = "IQR outliers in " + strings.Join(columns, ", ")
	}
	return QualityCheck{Name: "Outliers", Passed: true, Detail: detail}
}

func sampleSizeCheck(table *mart.Table, schema mart.SegmentSchema) QualityCheck {
	var small []string
	for _, r := range table.Records {
		n, err := r.Int(schema.TotalColumn)
		if err != nil || n >= MinSegmentSessions {
			continue
		}
		small = append(small, fmt.Sprintf("%s (n=%d)", r[schema.LabelColumn], n))
	}
	if len(small) == 0 {
		return QualityCheck{Name: "Segment sample size", Passed: true,
			Detail: fmt.Sprintf("every segment has at least %d sessions", MinSegmentSessions)}
	}
	return QualityCheck{Name: "Segment sample size",
		Detail: fmt.Sprintf("segments below %d sessions have wide intervals: %s", MinSegmentSessions, strings.Join(small, ", "))}
}
