// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/proforma/internal/report"
)

var (
	// PrimaryColor is the main theme color (slate blue).
	PrimaryColor = lipgloss.Color("#5B7DB1")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1)

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// Icons.
const (
	SuccessIcon  = "✓"
	ErrorIcon    = "✗"
	WarningIcon  = "⚠️"
	InfoIcon     = "ℹ️"
	BuildingIcon = "🏢"
	ChartIcon    = "📊"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the building icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(BuildingIcon + " " + title)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// RenderKeyValues renders label/value pairs as an aligned two-column list.
func RenderKeyValues(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	label := SubtleStyle.Width(width + 2)

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, label.Render(p[0])+BoldStyle.Render(p[1]))
	}
	return strings.Join(lines, "\n")
}

// RenderGrid draws a report grid as a bordered terminal table. Header and
// totals rows are bold and non-first columns are right aligned.
func RenderGrid(g report.Grid) string {
	if g.Empty() {
		return SubtleStyle.Render("No data available")
	}

	n := g.ColumnCount()
	pad := func(row []string) []string {
		out := make([]string, n)
		copy(out, row)
		return out
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle)

	body := g.Rows
	if g.Header {
		t = t.Headers(pad(g.Rows[0])...)
		body = g.Rows[1:]
	}
	for _, row := range body {
		t = t.Row(pad(row)...)
	}

	offset := 0
	if g.Header {
		offset = 1
	}
	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		gridRow := row + offset
		if row == table.HeaderRow {
			gridRow = 0
		}
		style := TableCellStyle
		if row == table.HeaderRow {
			style = TableHeaderStyle
		}
		if g.IsTotals(gridRow) || g.Style(gridRow, col).Bold() {
			style = style.Bold(true)
		}
		if g.Align(gridRow, col) == "R" {
			style = style.Align(lipgloss.Right)
		}
		return style
	})

	out := t.Render()
	if g.Title != "" {
		out = BoldStyle.Render(g.Title) + "\n" + out
	}
	return out
}
