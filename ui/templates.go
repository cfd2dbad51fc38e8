package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFiles embed.FS

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"title": func(v interface{}) string {
			s := fmt.Sprint(v)
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// Render to a buffer first so a template error never leaves a half-written page
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("[Template] %s: %v", templateName, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
