package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/byteowlz/lstcnt/internal/mortgage"
)

// Mortgage writes the loan summary and, when schedule is non-empty, the
// amortization table.
func Mortgage(w io.Writer, loan mortgage.Loan, monthly float64, schedule []mortgage.Payment) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	label := r.NewStyle().Width(18)
	header := r.NewStyle().Bold(true)

	var b strings.Builder
	b.WriteString(title.Render("Mortgage"))
	b.WriteString("\n\n")

	row := func(name, value string) {
		b.WriteString(label.Render(name))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Price", fmt.Sprintf("%.2f", loan.Price))
	row("Down payment", fmt.Sprintf("%.2f", loan.DownPayment))
	row("Financed", fmt.Sprintf("%.2f", loan.Principal()))
	row("Rate", fmt.Sprintf("%.3f%%", loan.AnnualRate))
	row("Term", fmt.Sprintf("%d years (%d payments)", loan.Years, loan.Months()))
	row("Monthly payment", fmt.Sprintf("%.2f", monthly))

	if len(schedule) > 0 {
		totals := mortgage.Sum(schedule)
		row("Total paid", fmt.Sprintf("%.2f", totals.Paid))
		row("Total interest", fmt.Sprintf("%.2f", totals.Interest))

		b.WriteString("\n")
		b.WriteString(header.Render(fmt.Sprintf("%4s  %12s  %12s  %12s  %14s", "#", "payment", "interest", "principal", "balance")))
		b.WriteString("\n")
		for _, p := range schedule {
			b.WriteString(p.String())
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
