package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/signalsfoundry/orbitwatch/internal/view"
	"github.com/signalsfoundry/orbitwatch/model"
)

// Theme is the visual style of the terminal UI.
type Theme struct {
	Title     lipgloss.Style
	Stats     lipgloss.Style
	Notice    lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Graticule lipgloss.Style
	Panel     lipgloss.Style
	Label     lipgloss.Style
	Tooltip   lipgloss.Style

	Border lipgloss.Color
}

// DefaultTheme is the standard dark-terminal theme.
var DefaultTheme = Theme{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dd3fc")),
	Stats:     lipgloss.NewStyle().Foreground(lipgloss.Color("#e5e7eb")),
	Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")).Italic(true),
	Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
	Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fafafa")).Background(lipgloss.Color("#374151")),
	Graticule: lipgloss.NewStyle().Foreground(lipgloss.Color("#1f3a5f")),
	Panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
	Tooltip:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e5e7eb")).Background(lipgloss.Color("#111827")),
	Border:    lipgloss.Color("#404040"),
}

// Tier styles text in a tier's marker color.
func (t Theme) Tier(tier model.RiskTier) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(view.TierColor(tier).Hex()))
}

// Marker styles a map glyph.
func (t Theme) Marker(c view.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
}
