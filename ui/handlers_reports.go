package ui

import (
	"html/template"
	"net/http"

	"ga4dash/internal/report"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": report.Variants()})
}

// handleReport returns a report as JSON, or as Markdown with ?format=md
func (s *Server) handleReport(c *gin.Context) {
	rep, ok := s.generateReport(c)
	if !ok {
		return
	}
	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rep.Markdown()))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":   rep,
		"markdown": rep.Markdown(),
	})
}

func (s *Server) handleReportPage(c *gin.Context) {
	rep, ok := s.generateReport(c)
	if !ok {
		return
	}
	s.renderTemplate(c, "report.html", gin.H{
		"Title":    rep.Title,
		"Report":   rep,
		"Body":     template.HTML(rep.HTML()),
		"Variants": report.Variants(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "index.html", gin.H{
		"Title":    "GA4 E-commerce Dashboard",
		"Variants": report.Variants(),
	})
}

func (s *Server) generateReport(c *gin.Context) (*report.Report, bool) {
	variant, err := report.ParseVariant(c.Param("variant"))
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	rep, err := s.reports.Generate(c.Request.Context(), variant)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	return rep, true
}
