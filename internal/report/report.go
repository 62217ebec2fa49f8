// Package report renders run results for people (styled text) and for
// other programs (JSON, YAML).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/byteowlz/lstcnt/internal/counter"
	"github.com/byteowlz/lstcnt/internal/extractor"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (text, json, yaml)", s)
}

// Record is the machine-readable form of one entry.
type Record struct {
	Site       string `json:"site" yaml:"site"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	URL        string `json:"url" yaml:"url"`
	Strategy   string `json:"strategy" yaml:"strategy"`
	Status     string `json:"status" yaml:"status"`
	Count      *int64 `json:"count,omitempty" yaml:"count,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	State      string `json:"state" yaml:"state"`
	JavaScript bool   `json:"javascript,omitempty" yaml:"javascript,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

type SummaryRecord struct {
	Sources  int   `json:"sources" yaml:"sources"`
	Counted  int   `json:"counted" yaml:"counted"`
	NotFound int   `json:"not_found" yaml:"not_found"`
	Errors   int   `json:"errors" yaml:"errors"`
	Skipped  int   `json:"skipped" yaml:"skipped"`
	Total    int64 `json:"total" yaml:"total"`
}

type Document struct {
	Results []Record      `json:"results" yaml:"results"`
	Summary SummaryRecord `json:"summary" yaml:"summary"`
}

func NewDocument(rs counter.ResultSet) Document {
	entries := rs.Entries()
	doc := Document{Results: make([]Record, 0, len(entries))}
	for _, e := range entries {
		rec := Record{
			Site:       e.Source.ID(),
			Label:      e.Source.Label,
			URL:        e.Source.URL,
			Strategy:   e.Source.Strategy.Kind.String(),
			Status:     e.Result.Kind.String(),
			State:      string(e.State),
			JavaScript: e.UsedJS,
			DurationMS: e.Duration.Milliseconds(),
		}
		switch e.Result.Kind {
		case extractor.ResultCount:
			n := e.Result.Value
			rec.Count = &n
		case extractor.ResultError:
			rec.Error = e.Result.Message
		}
		doc.Results = append(doc.Results, rec)
	}

	s := rs.Summary()
	doc.Summary = SummaryRecord{Sources: s.Sources, Counted: s.Counted, NotFound: s.NotFound, Errors: s.Errors, Skipped: s.Skipped, Total: s.Total}
	return doc
}

// Render writes rs to w in the given format.
func Render(w io.Writer, rs counter.ResultSet, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(rs))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(rs)); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, rs)
	}
	return fmt.Errorf("unknown output format %q", format)
}

var numbers = message.NewPrinter(language.English)

// FormatCount groups thousands: 12345 -> "12,345".
func FormatCount(n int64) string {
	return numbers.Sprintf("%d", n)
}

type styles struct {
	title    lipgloss.Style
	name     lipgloss.Style
	site     lipgloss.Style
	count    lipgloss.Style
	notFound lipgloss.Style
	failed   lipgloss.Style
	summary  lipgloss.Style
}

func newStyles(w io.Writer, nameWidth, siteWidth int) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4")),
		name:     r.NewStyle().Bold(true).Width(nameWidth),
		site:     r.NewStyle().Foreground(lipgloss.Color("#888888")).Width(siteWidth),
		count:    r.NewStyle().Foreground(lipgloss.Color("#95E1D3")).Width(12).Align(lipgloss.Right),
		notFound: r.NewStyle().Foreground(lipgloss.Color("#FFA86B")),
		failed:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		summary:  r.NewStyle().Italic(true),
	}
}

func renderText(w io.Writer, rs counter.ResultSet) error {
	entries := rs.Entries()

	nameWidth, siteWidth := 4, 4
	for _, e := range entries {
		nameWidth = max(nameWidth, lipgloss.Width(e.Source.Name()))
		siteWidth = max(siteWidth, lipgloss.Width(e.Source.ID()))
	}
	st := newStyles(w, nameWidth+2, siteWidth+2)

	var b strings.Builder
	b.WriteString(st.title.Render("Listing counts"))
	b.WriteString("\n\n")

	for _, e := range entries {
		b.WriteString(st.name.Render(e.Source.Name()))
		b.WriteString(st.site.Render(e.Source.ID()))
		switch e.Result.Kind {
		case extractor.ResultCount:
			b.WriteString(st.count.Render(FormatCount(e.Result.Value)))
		case extractor.ResultNotFound:
			b.WriteString(st.notFound.Render("not found"))
		default:
			b.WriteString(st.failed.Render(e.Result.String()))
		}
		b.WriteString("\n")
	}

	s := rs.Summary()
	b.WriteString("\n")
	b.WriteString(st.summary.Render(fmt.Sprintf("%d sites, %d counted, %d not found, %d errors, total %s",
		s.Sources, s.Counted, s.NotFound, s.Errors, FormatCount(s.Total))))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
