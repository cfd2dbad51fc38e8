package ports

import (
	"context"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
)

// MartSource gives read access to the loaded mart tables
type MartSource interface {
	Table(ctx context.Context, key core.MartKey) (*mart.Table, error)
	Available(ctx context.Context) ([]core.MartKey, error)
	Source(ctx context.Context) (string, error)
}
