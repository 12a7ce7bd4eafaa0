package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	title       lipgloss.Style
	user        lipgloss.Style
	assistant   lipgloss.Style
	errorBubble lipgloss.Style
	placeholder lipgloss.Style
	status      lipgloss.Style
	help        lipgloss.Style
	border      lipgloss.Color
}

var (
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	bubbleStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	lightTheme = theme{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
		user:        bubbleStyle.Copy().BorderForeground(lipgloss.Color("33")).Foreground(lipgloss.Color("17")),
		assistant:   bubbleStyle.Copy().BorderForeground(lipgloss.Color("245")).Foreground(lipgloss.Color("235")),
		errorBubble: bubbleStyle.Copy().BorderForeground(lipgloss.Color("160")).Foreground(lipgloss.Color("124")),
		placeholder: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		border:      lipgloss.Color("33"),
	}

	darkTheme = theme{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("117")),
		user:        bubbleStyle.Copy().BorderForeground(lipgloss.Color("69")).Foreground(lipgloss.Color("255")),
		assistant:   bubbleStyle.Copy().BorderForeground(lipgloss.Color("240")).Foreground(lipgloss.Color("252")),
		errorBubble: bubbleStyle.Copy().BorderForeground(lipgloss.Color("203")).Foreground(lipgloss.Color("210")),
		placeholder: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243")),
		status:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		border:      lipgloss.Color("69"),
	}
)
