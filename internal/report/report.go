// Package report renders the dashboard variants as Markdown and HTML.
//
// Every variant reads the same marts; they differ only in framing. A mart
// that is missing or too sparse to test yields a "data unavailable" section
// instead of failing the whole report.
package report

import (
	"fmt"
	"strings"
	"time"

	"ga4dash/domain/core"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

// Variant is one narrative framing of the dashboard data
type Variant string

const (
	Executive   Variant = "executive"
	Segments    Variant = "segments"
	Funnel      Variant = "funnel"
	Methodology Variant = "methodology"
)

var variants = []Variant{Executive, Segments, Funnel, Methodology}

// Variants lists the supported variants
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// ParseVariant resolves a variant name, case-insensitively
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range variants {
		if v == known {
			return v, nil
		}
	}
	return "", core.NewNotFoundError("report variant", s)
}

// Section is one headed block of a report
type Section struct {
	Heading     string `json:"heading"`
	Body        string `json:"body"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// Report is a rendered dashboard variant
type Report struct {
	ID          core.ReportID `json:"id"`
	Variant     Variant       `json:"variant"`
	Title       string        `json:"title"`
	Source      string        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
	Sections    []Section     `json:"sections"`
}

// Markdown returns the full report as a Markdown document
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "_Report %s generated %s from `%s`_\n\n", r.ID, r.GeneratedAt.UTC().Format(time.RFC3339), r.Source)
	for _, s := range r.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Heading, strings.TrimSpace(s.Body))
	}
	return b.String()
}

// HTML renders the Markdown to an HTML fragment
func (r *Report) HTML() []byte {
	// parsers are stateful; one per document
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	return markdown.ToHTML([]byte(r.Markdown()), p, nil)
}

// Available reports how many sections had data
func (r *Report) Available() int {
	n := 0
	for _, s := range r.Sections {
		if !s.Unavailable {
			n++
		}
	}
	return n
}
