package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// ========================================
// Brand Colors - Kartoza standard palette
// ========================================

var (
	ColorOrange = lipgloss.Color("#DDA036") // Primary/Active
	ColorBlue   = lipgloss.Color("#569FC6") // Secondary/Links
	ColorGray   = lipgloss.Color("#9A9EA0") // Inactive/Subtle
	ColorWhite  = lipgloss.Color("#FFFFFF") // Text
	ColorRed    = lipgloss.Color("#E95420") // Error
	ColorGreen  = lipgloss.Color("#4CAF50") // Success
)

// HeaderWidth is the standard width for the header
const HeaderWidth = 60

// RenderHeader renders the application header for a screen
func RenderHeader(screenTitle string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	mottoStyle := lipgloss.NewStyle().
		Italic(true).
		Foreground(ColorGray).
		Align(lipgloss.Center).
		Width(HeaderWidth)

	dividerStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Width(HeaderWidth)

	title := titleStyle.Render("Kartoza Video Composer - " + screenTitle)
	motto := mottoStyle.Render("a face for every prospect")
	divider := dividerStyle.Render("────────────────────────────────────────────────────────────")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		motto,
		divider,
	)
}

// RenderHelpFooter renders the help footer at the bottom of the screen
func RenderHelpFooter(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)

	footerStyle := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center)

	return footerStyle.Render(helpStyle.Render(helpText))
}

// Label styles shared by the CLI output
var (
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
)
