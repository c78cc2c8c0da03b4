package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accentColor  = lipgloss.Color("#7D56F4")
	subtleColor  = lipgloss.Color("#6C6C6C")
	successColor = lipgloss.Color("#73F59F")
	warnColor    = lipgloss.Color("#F5C26B")
	errorColor   = lipgloss.Color("#FF6B6B")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(subtleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
