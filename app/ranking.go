package app

import (
	"context"
	"sort"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/ports"
)

// RankedRow is a mart record with the value it was ranked by
type RankedRow struct {
	Value  float64     `json:"value"`
	Record mart.Record `json:"record"`
}

// TopRows returns the n records of a mart with the largest value in column.
// Rows whose value does not parse are skipped.
func TopRows(ctx context.Context, source ports.MartSource, key core.MartKey, column string, n int) ([]RankedRow, error) {
	table, err := source.Table(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := table.RequireColumns(column); err != nil {
		return nil, err
	}

	rows := make([]RankedRow, 0, len(table.Records))
	for _, r := range table.Records {
		v, err := r.Float(column)
		if err != nil {
			continue
		}
		rows = append(rows, RankedRow{Value: v, Record: r})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Value > rows[j].Value })
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}
