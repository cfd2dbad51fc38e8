// Package mart describes the pre-aggregated GA4 mart tables the dashboards read.
package mart

import (
	"sort"

	"ga4dash/domain/core"
)

// Mart keys
const (
	BrowsingStyle   core.MartKey = "browsing_style"
	DeepSpecialists core.MartKey = "deep_specialists"
	VarietySeekers  core.MartKey = "variety_seekers"
	DeviceFriction  core.MartKey = "device_friction"
	CartAbandon     core.MartKey = "cart_abandon"
	PromoQuality    core.MartKey = "promo_quality"
	TimeConversion  core.MartKey = "time_conversion"
	BundleStrategy  core.MartKey = "bundle_strategy"
	CoreSessions    core.MartKey = "core_sessions"
	FunnelOverall   core.MartKey = "funnel_overall"
	FunnelDropoff   core.MartKey = "funnel_dropoff"
	FunnelDevice    core.MartKey = "funnel_device"
	FunnelDay       core.MartKey = "funnel_day"
	FunnelHour      core.MartKey = "funnel_hour"
	FunnelSource    core.MartKey = "funnel_source"
)

// ProbeFile marks a directory as holding the mart tables
const ProbeFile = "mart_browsing_style.csv"

// Files maps each mart to the CSV file the upstream pipeline writes
var Files = map[core.MartKey]string{
	BrowsingStyle:   "mart_browsing_style.csv",
	DeepSpecialists: "mart_deep_specialists.csv",
	VarietySeekers:  "mart_variety_seekers.csv",
	DeviceFriction:  "mart_device_friction.csv",
	CartAbandon:     "mart_cart_abandon.csv",
	PromoQuality:    "mart_promo_quality.csv",
	TimeConversion:  "mart_time_to_conversion.csv",
	BundleStrategy:  "mart_bundle_strategy.csv",
	CoreSessions:    "mart_core_sessions.csv",
	FunnelOverall:   "mart_funnel_overall.csv",
	FunnelDropoff:   "mart_funnel_dropoff.csv",
	FunnelDevice:    "mart_funnel_device.csv",
	FunnelDay:       "mart_funnel_daycsv.csv", // upstream file name
	FunnelHour:      "mart_funnel_hour.csv",
	FunnelSource:    "mart_funnel_source.csv",
}

// Keys returns every catalog key in sorted order
func Keys() []core.MartKey {
	keys := make([]core.MartKey, 0, len(Files))
	for k := range Files {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Known reports whether key is part of the catalog
func Known(key core.MartKey) bool {
	_, ok := Files[key]
	return ok
}

// SegmentSchema names the columns that turn a mart row into an outcome count.
// Either RateColumn (percent) or SuccessColumn (count) must be set.
type SegmentSchema struct {
	LabelColumn   string `json:"label_column"`
	TotalColumn   string `json:"total_column"`
	RateColumn    string `json:"rate_column,omitempty"`
	SuccessColumn string `json:"success_column,omitempty"`
}

// Valid reports whether the schema names a label, a total and exactly one
// success source.
func (s SegmentSchema) Valid() bool {
	if s.LabelColumn == "" || s.TotalColumn == "" {
		return false
	}
	return (s.RateColumn == "") != (s.SuccessColumn == "")
}

// Schemas are the segment layouts of marts with a known shape
var Schemas = map[core.MartKey]SegmentSchema{
	BrowsingStyle:   {LabelColumn: "browsing_style", TotalColumn: "session_count", RateColumn: "conversion_rate"},
	DeepSpecialists: {LabelColumn: "depth_segment", TotalColumn: "session_count", RateColumn: "conversion_rate"},
	FunnelDevice:    {LabelColumn: "device_category", TotalColumn: "sessions", RateColumn: "overall_cvr"},
	FunnelDay:       {LabelColumn: "day_name", TotalColumn: "sessions", RateColumn: "cvr"},
	FunnelHour:      {LabelColumn: "session_hour", TotalColumn: "sessions", RateColumn: "cvr"},
	FunnelSource:    {LabelColumn: "source", TotalColumn: "sessions", RateColumn: "cvr"},
	FunnelDropoff:   {LabelColumn: "step", TotalColumn: "from_count", SuccessColumn: "to_count"},
}

// SchemaFor returns the built-in schema for key
func SchemaFor(key core.MartKey) (SegmentSchema, bool) {
	s, ok := Schemas[key]
	return s, ok
}
