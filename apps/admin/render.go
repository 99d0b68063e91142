package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/shule/core/finance"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorYellow = lipgloss.Color("#D0A215")
	colorOrange = lipgloss.Color("#DA702C")
	colorRed    = lipgloss.Color("#D14D41")

	titleStyle  = lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle    = lipgloss.NewStyle().Foreground(colorBorder)

	tierStyles = map[finance.Tier]lipgloss.Style{
		finance.TierHealthy:  lipgloss.NewStyle().Foreground(colorGreen),
		finance.TierWarning:  lipgloss.NewStyle().Foreground(colorYellow),
		finance.TierCritical: lipgloss.NewStyle().Foreground(colorOrange),
		finance.TierExceeded: lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)

type table struct {
	headers []string
	rows    [][]string
	styles  map[int]func(cell string) lipgloss.Style // per column, optional
}

func renderTitle(title string) string {
	return titleStyle.Render(title)
}

// renderTable renders a bordered table; the first column is left-aligned, the others right-aligned.
func renderTable(t table) string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	line := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < len(widths)-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	cells := func(row []string, style func(col int, cell string) lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			padded := fmt.Sprintf(" %*s ", w, cell)
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", w, cell)
			}
			b.WriteString(style(i, cell).Render(padded))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	line("╭", "┬", "╮")
	cells(t.headers, func(int, string) lipgloss.Style { return headerStyle })
	line("├", "┼", "┤")
	for _, row := range t.rows {
		cells(row, func(col int, cell string) lipgloss.Style {
			if style, ok := t.styles[col]; ok {
				return style(cell)
			}
			return lipgloss.NewStyle()
		})
	}
	line("╰", "┴", "╯")
	return b.String()
}

func tierStyle(cell string) lipgloss.Style {
	if style, ok := tierStyles[finance.Tier(cell)]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
