package inspect

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette for frame dumps. Tokyo Night tones.
type Theme struct {
	Label   lipgloss.Color
	Value   lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Dim     lipgloss.Color
}

var DefaultTheme = Theme{
	Label:   lipgloss.Color("#565f89"),
	Value:   lipgloss.Color("#c0caf5"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Success: lipgloss.Color("#9ece6a"),
	Error:   lipgloss.Color("#f7768e"),
	Dim:     lipgloss.Color("#414868"),
}

// Styles holds pre-configured lipgloss styles for dump output.
type Styles struct {
	Label   lipgloss.Style
	Value   lipgloss.Style
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Label:   lipgloss.NewStyle().Foreground(t.Label).Width(14),
		Value:   lipgloss.NewStyle().Foreground(t.Value),
		Header:  lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
		Dim:     lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// DefaultStyles returns styles using the default theme.
var DefaultStyles = NewStyles(DefaultTheme)
