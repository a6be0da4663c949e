package styles

import "github.com/charmbracelet/lipgloss"

var (
	Title  = lipgloss.NewStyle().Bold(true)
	Header = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	Footer = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	Box    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	Danger = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Warn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	Good   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7AF"))
	Faint  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))

	// threshold banding for trend points
	High = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	Low  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F87FF"))

	// severity tiers, low to critical
	Severity = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7AF")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
	}
)
