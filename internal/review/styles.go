package review

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed    = lipgloss.Color("#ff5555")
	colorGreen  = lipgloss.Color("#50fa7b")
	colorYellow = lipgloss.Color("#f1fa8c")
	colorBlue   = lipgloss.Color("#8be9fd")
	colorPurple = lipgloss.Color("#bd93f9")
	colorDim    = lipgloss.Color("#6272a4")
	colorFg     = lipgloss.Color("#f8f8f2")
	colorBgBar  = lipgloss.Color("#343746")
	colorBorder = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	messageStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	beforeStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	afterStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	explanationStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgBar).
			Padding(0, 1)

	approvedStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	rejectedStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	severityStyles = map[string]lipgloss.Style{
		"critical": lipgloss.NewStyle().Foreground(colorRed).Bold(true),
		"high":     lipgloss.NewStyle().Foreground(colorPurple).Bold(true),
		"medium":   lipgloss.NewStyle().Foreground(colorBlue),
		"low":      lipgloss.NewStyle().Foreground(colorYellow),
	}
)
