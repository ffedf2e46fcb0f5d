package ui

import "github.com/charmbracelet/lipgloss"

// Palette, adapting to light and dark terminals.
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD54F"}
	HeadingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	BorderColor  = lipgloss.AdaptiveColor{Light: "#DEE2E6", Dark: "#3B3C4F"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().Padding(0, 1)

	MutedStyle = lipgloss.NewStyle().Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)

	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)

	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
)
