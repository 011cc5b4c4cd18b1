package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/roadnoise/internal/intensity"
)

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#EF4444")
	ColorBlue    = lipgloss.Color("#60A5FA")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
)

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	SampleBadgeStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	PlayingStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	IdleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	HourStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	SelectedMarkStyle = lipgloss.NewStyle().
				Foreground(ColorBlue).
				Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	InfoBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorDimGray).
			Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta)
)

// BandStyle returns the foreground style for a loudness band.
func BandStyle(b intensity.Band) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(b.Hex()))
}
