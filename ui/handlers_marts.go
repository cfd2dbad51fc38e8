package ui

import (
	"net/http"
	"strconv"

	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/internal/errors"

	"github.com/gin-gonic/gin"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
)

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	source, err := s.source.Source(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	available, err := s.source.Available(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": source,
		"marts":  len(available),
	})
}

func (s *Server) handleListMarts(c *gin.Context) {
	ctx := c.Request.Context()
	source, err := s.source.Source(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	available, err := s.source.Available(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	loaded := make(map[core.MartKey]bool, len(available))
	for _, k := range available {
		loaded[k] = true
	}

	marts := make([]gin.H, 0, len(mart.Files))
	for _, key := range mart.Keys() {
		_, segmentable := mart.SchemaFor(key)
		entry := gin.H{
			"name":        key,
			"file":        mart.Files[key],
			"loaded":      loaded[key],
			"segmentable": segmentable,
		}
		if loaded[key] {
			if table, err := s.source.Table(ctx, key); err == nil {
				entry["rows"] = len(table.Records)
				entry["columns"] = table.Columns
			}
		}
		marts = append(marts, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"source": source,
		"marts":  marts,
		"loaded": len(available),
	})
}

func (s *Server) handleMart(c *gin.Context) {
	key, err := martParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	limit := defaultRowLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(c, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = min(n, maxRowLimit)
	}

	table, err := s.source.Table(c.Request.Context(), key)
	if err != nil {
		s.respondError(c, err)
		return
	}
	rows := table.Records
	if len(rows) > limit {
		rows = rows[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"name":       table.Name,
		"source":     table.Source,
		"columns":    table.Columns,
		"rows":       rows,
		"total_rows": len(table.Records),
	})
}

func (s *Server) handleSegments(c *gin.Context) {
	key, err := martParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	report, err := s.segments.Segments(c.Request.Context(), key, schemaOverride(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCompare(c *gin.Context) {
	key, err := martParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	a, b := c.Query("a"), c.Query("b")
	if a == "" || b == "" {
		s.respondError(c, errors.InvalidInput("query parameters a and b are required"))
		return
	}
	cmp, err := s.segments.Compare(c.Request.Context(), key, a, b, schemaOverride(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (s *Server) handleIndependence(c *gin.Context) {
	key, err := martParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	report, err := s.segments.Independence(c.Request.Context(), key, schemaOverride(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleProfile(c *gin.Context) {
	key, err := martParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	table, err := s.source.Table(c.Request.Context(), key)
	if err != nil {
		s.respondError(c, err)
		return
	}
	schema := schemaOverride(c)
	if schema == nil {
		if builtin, ok := mart.SchemaFor(key); ok {
			schema = &builtin
		}
	}
	if schema != nil {
		if err := table.RequireColumns(schema.LabelColumn, schema.TotalColumn); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, s.profiler.ProfileTable(table, schema))
}

func (s *Server) handleFunnel(c *gin.Context) {
	report, err := s.funnel.Funnel(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func martParam(c *gin.Context) (core.MartKey, error) {
	key, err := core.ParseMartKey(c.Param("name"))
	if err != nil {
		return "", err
	}
	if !mart.Known(key) {
		return "", core.NewNotFoundError("mart", key.String())
	}
	return key, nil
}

// schemaOverride reads label/total/rate/success query parameters; nil when
// none are given
func schemaOverride(c *gin.Context) *mart.SegmentSchema {
	schema := mart.SegmentSchema{
		LabelColumn:   c.Query("label"),
		TotalColumn:   c.Query("total"),
		RateColumn:    c.Query("rate"),
		SuccessColumn: c.Query("success"),
	}
	if schema == (mart.SegmentSchema{}) {
		return nil
	}
	return &schema
}
