package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	seriesStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F96302"))
	lastYearStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#86868b"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tierStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	pointerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	editorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// colorStyle renders in an annotation's color, which is carried opaquely.
func colorStyle(color, fallback string) lipgloss.Style {
	if color == "" {
		color = fallback
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
