package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/byteowlz/lstcnt/internal/registry"
)

// Sites lists registry sources with their strategies.
func Sites(w io.Writer, sources []registry.Source) error {
	nameWidth, siteWidth := 4, 4
	for _, s := range sources {
		nameWidth = max(nameWidth, lipgloss.Width(s.Name()))
		siteWidth = max(siteWidth, lipgloss.Width(s.ID()))
	}

	r := lipgloss.NewRenderer(w)
	name := r.NewStyle().Bold(true).Width(nameWidth + 2)
	site := r.NewStyle().Foreground(lipgloss.Color("#888888")).Width(siteWidth + 2)

	var b strings.Builder
	for _, s := range sources {
		b.WriteString(name.Render(s.Name()))
		b.WriteString(site.Render(s.ID()))
		b.WriteString(s.Strategy.String())
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
