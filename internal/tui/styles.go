package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#8B5CF6")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#10B981")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorText      = lipgloss.Color("#F8FAFC")
	colorTextMuted = lipgloss.Color("#94A3B8")
	colorDimmed    = lipgloss.Color("#374151")
	colorBgPanel   = lipgloss.Color("#1E293B")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorBgPanel).
			Foreground(colorText).
			Padding(0, 1)

	logPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDimmed).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	onStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	offStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	recStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	busyStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
)

// Log tag styles.
var tagStyles = map[string]lipgloss.Style{
	tagInfo:  lipgloss.NewStyle().Foreground(colorSecondary).Bold(true),
	tagError: lipgloss.NewStyle().Foreground(colorError).Bold(true),
	tagDE:    lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
	tagEN:    lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
	tagSend:  lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
}

func renderKeyHint(key, description string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(description)
}
