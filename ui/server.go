package ui

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"ga4dash/app"
	"ga4dash/internal"
	"ga4dash/internal/profiling"
	"ga4dash/internal/report"
	"ga4dash/ports"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the dashboard server exposes
type Dependencies struct {
	Source   ports.MartSource
	Segments *app.SegmentService
	Funnel   *app.FunnelService
	Reports  *report.Service
	Logger   *internal.Logger
}

// Server serves the dashboard API and the rendered report pages
type Server struct {
	router    *gin.Engine
	source    ports.MartSource
	segments  *app.SegmentService
	funnel    *app.FunnelService
	reports   *report.Service
	profiler  *profiling.DataProfiler
	templates *template.Template
	logger    *internal.Logger
}

// NewServer creates a server with all routes registered
func NewServer(deps Dependencies) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		source:    deps.Source,
		segments:  deps.Segments,
		funnel:    deps.Funnel,
		reports:   deps.Reports,
		profiler:  profiling.NewDataProfiler(),
		templates: templates,
		logger:    deps.Logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/", s.handleIndex)
	s.router.GET("/reports/:variant", s.handleReportPage)

	api := s.router.Group("/api")
	{
		api.GET("/marts", s.handleListMarts)
		api.GET("/marts/:name", s.handleMart)
		api.GET("/marts/:name/segments", s.handleSegments)
		api.GET("/marts/:name/compare", s.handleCompare)
		api.GET("/marts/:name/independence", s.handleIndependence)
		api.GET("/marts/:name/profile", s.handleProfile)
		api.GET("/funnel", s.handleFunnel)

		api.POST("/stats/chi-square", s.handleChiSquare)
		api.GET("/stats/wilson", s.handleWilson)
		api.GET("/stats/cohens-h", s.handleCohensH)

		api.GET("/reports", s.handleListReports)
		api.GET("/reports/:variant", s.handleReport)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[Server] listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("[Server] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
