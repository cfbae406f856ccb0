package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorDanger    = lipgloss.Color("#EF4444") // Red
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorInfo      = lipgloss.Color("#60A5FA") // Blue
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
)

// Styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	// Menu
	MenuItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	MenuSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Bold(true).
				Foreground(ColorPrimary)

	// Form
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(16)

	FocusedLabelStyle = LabelStyle.
				Foreground(ColorPrimary).
				Bold(true)

	// Log levels, the info/success/warning/error markers
	LogInfoStyle    = lipgloss.NewStyle().Foreground(ColorInfo)
	LogSuccessStyle = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	LogWarnStyle    = lipgloss.NewStyle().Foreground(ColorWarning)
	LogErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)

	PositiveValue = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	NegativeValue = lipgloss.NewStyle().
			Foreground(ColorDanger)

	MutedValue = lipgloss.NewStyle().
			Foreground(ColorMuted)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// Connection indicators
var (
	StatusConnected = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	StatusDisconnected = lipgloss.NewStyle().
				Foreground(ColorDanger)
)
