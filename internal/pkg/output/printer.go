package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	sourceStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5fafff"))
	patternStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	cleanStyle   = lipgloss.NewStyle().Faint(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// Printer writes scan results either as one JSON document per record or as
// highlighted text lines.
type Printer struct {
	w      io.Writer
	json   bool
	pretty bool
	color  bool
}

// NewPrinter creates a Printer. Styling and pretty JSON are enabled only when
// w is a terminal.
func NewPrinter(w io.Writer, jsonOutput bool) *Printer {
	tty := w == io.Writer(os.Stdout) && IsTerminal(w)
	return &Printer{w: w, json: jsonOutput, pretty: tty, color: tty}
}

// JSONOutput reports whether records are printed as JSON.
func (p *Printer) JSONOutput() bool {
	return p.json
}

// Record writes v as a JSON document.
func (p *Printer) Record(v any) error {
	data, err := MarshalJSONPretty(v, p.pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

// Matches writes one line naming source and the patterns found in it.
// A source with no matches is printed as clean.
func (p *Printer) Matches(source string, patterns []string) error {
	if len(patterns) == 0 {
		_, err := fmt.Fprintf(p.w, "%s: %s\n", p.style(sourceStyle, source), p.style(cleanStyle, "clean"))
		return err
	}
	styled := make([]string, len(patterns))
	for i, pat := range patterns {
		styled[i] = p.style(patternStyle, pat)
	}
	_, err := fmt.Fprintf(p.w, "%s: %s\n", p.style(sourceStyle, source), strings.Join(styled, ", "))
	return err
}

// Field writes an aligned "label: value" line.
func (p *Printer) Field(label string, value any) error {
	_, err := fmt.Fprintf(p.w, "%s %v\n", p.style(labelStyle, fmt.Sprintf("%-14s", label+":")), value)
	return err
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}
