package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// writer accumulates a section body; numbers are printed with thousands
// separators
type writer struct {
	b strings.Builder
	p *message.Printer
}

func newWriter() *writer {
	return &writer{p: message.NewPrinter(language.English)}
}

func (w *writer) line(format string, args ...interface{}) {
	w.b.WriteString(w.p.Sprintf(format, args...))
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

func (w *writer) table(header []string, rows [][]string) {
	w.b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	w.b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cell(c)
		}
		w.b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	w.blank()
}

func (w *writer) sprintf(format string, args ...interface{}) string {
	return w.p.Sprintf(format, args...)
}

func (w *writer) String() string {
	return w.b.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "<", "&lt;", ">", "&gt;", "\n", " ")

func cell(s string) string {
	return cellEscaper.Replace(s)
}

// formatP prints a p-value the way the dashboards quote it
func formatP(p float64) string {
	if p < 0.001 {
		return "< 0.001"
	}
	return fmt.Sprintf("%.4f", p)
}
