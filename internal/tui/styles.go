package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.AdaptiveColor{Light: "5", Dark: "13"}
	dimColor    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	errorColor  = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	okColor     = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	subtitleStyle    = lipgloss.NewStyle().Foreground(dimColor)
	labelStyle       = lipgloss.NewStyle().Foreground(dimColor)
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	errorStyle       = lipgloss.NewStyle().Foreground(errorColor)
	successStyle     = lipgloss.NewStyle().Foreground(okColor)
	currentPageStyle = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	otherPageStyle   = lipgloss.NewStyle().Foreground(dimColor).Padding(0, 1)
)

// modalBorder returns the frame drawn around an open modal.
func modalBorder(width int) lipgloss.Style {
	s := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
	if width > 4 {
		s = s.Width(min(width-4, 64))
	}
	return s
}

func toastStyle(kind toastKind) lipgloss.Style {
	switch kind {
	case toastError:
		return errorStyle
	case toastSuccess:
		return successStyle
	default:
		return subtitleStyle
	}
}
