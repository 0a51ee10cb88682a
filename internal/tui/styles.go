package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1)

	logTimeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	logInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))
	logSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	logErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	logWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
)

func styleFor(style string) lipgloss.Style {
	switch style {
	case styleSuccess:
		return logSuccessStyle
	case styleError:
		return logErrorStyle
	case styleWarn:
		return logWarnStyle
	default:
		return logInfoStyle
	}
}
