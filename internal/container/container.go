package container

import (
	"context"
	"fmt"

	"ga4dash/app"
	"ga4dash/internal"
	"ga4dash/internal/config"
	"ga4dash/internal/dataset"
	"ga4dash/internal/report"
	"ga4dash/ui"
)

// funnelBottlenecks is how many worst steps the funnel analysis reports
const funnelBottlenecks = 2

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Data access
	Store *dataset.Store

	// Analysis services
	Segments *app.SegmentService
	Funnel   *app.FunnelService
	Reports  *report.Service
}

// New creates a new dependency injection container. Nothing is read from
// disk until the first mart is requested or Warm is called.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(cfg.LogLevel)
	store := dataset.NewStore(dataset.StoreConfig{
		Candidates:  cfg.Data.MartPaths,
		Workbook:    cfg.Data.Workbook,
		Concurrency: cfg.Data.LoadConcurrency,
	}, logger)

	segments := app.NewSegmentService(store, cfg.Stats.Confidence, cfg.Stats.Significance, logger)
	funnel := app.NewFunnelService(store, cfg.Stats.Confidence, funnelBottlenecks)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Segments: segments,
		Funnel:   funnel,
		Reports:  report.NewService(store, segments, funnel, logger),
	}, nil
}

// Warm loads the marts eagerly and logs any that were skipped
func (c *Container) Warm(ctx context.Context) error {
	if err := c.Store.Load(ctx); err != nil {
		return err
	}
	for key, reason := range c.Store.Skipped() {
		c.Logger.Info("[Container] mart %s unavailable: %s", key, reason)
	}
	return nil
}

// Server builds the HTTP server over the container's services
func (c *Container) Server() (*ui.Server, error) {
	return ui.NewServer(ui.Dependencies{
		Source:   c.Store,
		Segments: c.Segments,
		Funnel:   c.Funnel,
		Reports:  c.Reports,
		Logger:   c.Logger,
	})
}
