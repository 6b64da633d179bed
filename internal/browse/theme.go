package browse

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used to render the browse screen.
type Theme struct {
	Title    lipgloss.Style
	Subtle   lipgloss.Style
	Selected lipgloss.Style
	Row      lipgloss.Style
	Badge    lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
	Modal    lipgloss.Style
	Label    lipgloss.Style
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7")),
	Subtle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#737AA2")),
	Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1A1B26")).Background(lipgloss.Color("#7AA2F7")),
	Row:      lipgloss.NewStyle().Foreground(lipgloss.Color("#C0CAF5")),
	Badge:    lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1B26")).Background(lipgloss.Color("#9ECE6A")).Padding(0, 1),
	Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")),
	Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")),
	Modal:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7AA2F7")).Padding(0, 1),
	Label:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BB9AF7")),
}
