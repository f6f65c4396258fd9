package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/auditor/internal/model"
)

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")

	colorReviewedBg = lipgloss.Color("#1f3b2a")
	colorModifiedBg = lipgloss.Color("#4a3420")
	colorIgnoredBg  = lipgloss.Color("#2b2d3a")
	colorSelectBg   = lipgloss.Color("#3d3f6b")
)

// Style definitions.
var (
	// File list
	fileListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	fileItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	fileItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	fileItemDoneStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	// Source view
	sourceViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(5).
			Align(lipgloss.Right)

	fileHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	// Comment threads
	threadStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			PaddingLeft(8)

	threadAuthorStyle = lipgloss.NewStyle().
				Foreground(colorPurple).
				Bold(true)

	threadEditingStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Italic(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorBgLight).
				Bold(true)

	// Help
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// labelStyle is the line background for a classification.
func labelStyle(l model.Label) lipgloss.Style {
	switch l {
	case model.LabelReviewed:
		return lipgloss.NewStyle().Background(colorReviewedBg)
	case model.LabelModified:
		return lipgloss.NewStyle().Background(colorModifiedBg)
	case model.LabelIgnored:
		return lipgloss.NewStyle().Background(colorIgnoredBg).Faint(true)
	default:
		return lipgloss.NewStyle()
	}
}

// labelMarker is the gutter glyph for a classification.
func labelMarker(l model.Label) string {
	switch l {
	case model.LabelReviewed:
		return lipgloss.NewStyle().Foreground(colorGreen).Render("✓")
	case model.LabelModified:
		return lipgloss.NewStyle().Foreground(colorOrange).Render("~")
	case model.LabelIgnored:
		return lipgloss.NewStyle().Foreground(colorDim).Render("·")
	default:
		return " "
	}
}
