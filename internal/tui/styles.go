package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/nomercy/internal/deck"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	CurrentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	PlayerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	cardStyles = map[deck.Color]lipgloss.Style{
		deck.Red:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		deck.Yellow: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFEAA7")).Bold(true),
		deck.Green:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		deck.Blue:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5DADE2")).Bold(true),
	}

	wildStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C39BD3")).
			Bold(true)
)

// CardStyle returns the style a card of the given color is drawn in
func CardStyle(c deck.Color) lipgloss.Style {
	if s, ok := cardStyles[c]; ok {
		return s
	}
	return wildStyle
}
