package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/signalsfoundry/orbitwatch/internal/globe"
	"github.com/signalsfoundry/orbitwatch/internal/view"
	"github.com/signalsfoundry/orbitwatch/model"
)

const mapUnavailable = "Map unavailable: table and statistics remain usable"

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.headerView(),
		m.mapView(),
		m.statusView(),
		m.bottomView(),
		m.help.ShortHelpView(m.keymap.ShortHelp()),
	}
	return strings.Join(sections, "\n")
}

func (m Model) headerView() string {
	st := m.store.Stats()
	title := m.theme.Title.Render("OrbitWatch")
	stats := m.theme.Stats.Render(fmt.Sprintf("tracked %d · high risk %d · LEO %d · showing %d",
		st.Total, st.HighRisk, st.LEO, len(m.rows)))

	var notice string
	switch {
	case !m.loaded:
		notice = m.theme.Muted.Render("Loading catalog…")
	case m.result.Notice != "":
		notice = m.theme.Notice.Render(m.result.Notice)
	default:
		notice = m.theme.Muted.Render("Live data, loaded " + m.result.LoadedAt.Format("15:04:05"))
	}

	return strings.Join([]string{
		title + "  " + stats,
		notice,
		m.search.View() + "   " + m.riskView(),
	}, "\n")
}

func (m Model) riskView() string {
	parts := make([]string, 0, len(riskCycle))
	for i, r := range riskCycle {
		switch {
		case i == m.riskIdx:
			parts = append(parts, m.theme.Selected.Render("["+r+"]"))
		case r == model.RiskAll:
			parts = append(parts, m.theme.Muted.Render(r))
		default:
			parts = append(parts, m.theme.Tier(model.RiskTier(r)).Render(r))
		}
	}
	return m.theme.Label.Render("risk: ") + strings.Join(parts, " ")
}

func (m Model) mapView() string {
	rows := max(m.mapHeight, 1)
	if !m.mapAttached {
		return lipgloss.Place(max(m.width, 1), rows, lipgloss.Center, lipgloss.Center,
			m.theme.Muted.Render(mapUnavailable))
	}

	frame := m.surface.Render()
	tip, tipRow, tipCol, tipWidth := m.tooltipOverlay(frame)

	lines := make([]string, 0, frame.Height)
	for y, row := range frame.Cells {
		if y != tipRow {
			lines = append(lines, m.renderCells(row))
			continue
		}
		end := min(tipCol+tipWidth, len(row))
		lines = append(lines, m.renderCells(row[:tipCol])+tip+m.renderCells(row[end:]))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCells(cells []globe.Cell) string {
	var b strings.Builder
	var run []rune
	for _, c := range cells {
		if !c.Marker {
			run = append(run, c.Rune)
			continue
		}
		if len(run) > 0 {
			b.WriteString(m.theme.Graticule.Render(string(run)))
			run = run[:0]
		}
		b.WriteString(m.theme.Marker(c.Color).Render(string(c.Rune)))
	}
	if len(run) > 0 {
		b.WriteString(m.theme.Graticule.Render(string(run)))
	}
	return b.String()
}

// tooltipOverlay places the hover tooltip on the map row below the pointer,
// or above it on the last row, shifted left to stay inside the frame. tipRow
// is -1 when there is no tooltip.
func (m Model) tooltipOverlay(frame globe.Frame) (text string, tipRow, tipCol, width int) {
	t, ok := m.panels.Tooltip()
	if !ok || frame.Height == 0 {
		return "", -1, 0, 0
	}
	r := t.Record
	text = fmt.Sprintf(" %s  #%d  %s km  incl %s  %s ",
		r.Name, r.CatalogID, formatAltitude(r.AltitudeKm), formatInclination(r.InclinationDeg),
		m.theme.Tier(r.RiskTier).Render(strings.ToUpper(string(r.RiskTier))))
	width = lipgloss.Width(text)

	tipRow = int(t.At.Y) + 1
	if tipRow >= frame.Height {
		tipRow = int(t.At.Y) - 1
	}
	tipRow = min(max(tipRow, 0), frame.Height-1)
	tipCol = min(max(int(t.At.X), 0), max(frame.Width-width, 0))
	return m.theme.Tooltip.Render(text), tipRow, tipCol, width
}

// statusView shows the hovered record's tier advisory under the map.
func (m Model) statusView() string {
	r, ok := m.sync.Hovered()
	if !ok {
		return ""
	}
	return m.theme.Tier(r.RiskTier).Render(view.Advisory(r.RiskTier))
}

func (m Model) bottomView() string {
	tbl := m.table.View()
	d, ok := m.panels.Detail()
	if !ok {
		return tbl
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tbl, " ", m.detailView(d))
}

func (m Model) detailView(d view.DetailPanel) string {
	r := d.Record
	tier := m.theme.Tier(r.RiskTier)
	field := func(label, value string) string {
		return m.theme.Label.Render(fmt.Sprintf("%-12s", label)) + value
	}

	lines := []string{
		tier.Render(r.Name),
		field("Catalog ID", fmt.Sprintf("%d", r.CatalogID)),
		field("Altitude", formatAltitude(r.AltitudeKm)+" km"),
		field("Inclination", formatInclination(r.InclinationDeg)),
		field("Latitude", fmt.Sprintf("%.2f°", r.Latitude)),
		field("Longitude", fmt.Sprintf("%.2f°", r.Longitude)),
		field("Risk", tier.Render(strings.ToUpper(string(r.RiskTier)))),
		"",
		d.Advisory,
	}
	if r.PositionPlaceholder {
		lines = append(lines, m.theme.Muted.Render("position is illustrative"))
	}

	return m.theme.Panel.
		BorderForeground(lipgloss.Color(view.TierColor(r.RiskTier).Hex())).
		Width(detailWidth - 2).
		Render(strings.Join(lines, "\n"))
}

func columns(width int) []table.Column {
	name := max(width-44, 16)
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Catalog ID", Width: 10},
		{Title: "Alt (km)", Width: 9},
		{Title: "Incl", Width: 8},
		{Title: "Risk", Width: 8},
	}
}

func tableRow(r model.DebrisRecord) table.Row {
	return table.Row{
		r.Name,
		r.CatalogIDString(),
		formatAltitude(r.AltitudeKm),
		formatInclination(r.InclinationDeg),
		string(r.RiskTier),
	}
}

func formatAltitude(km float64) string {
	return fmt.Sprintf("%.0f", km)
}

func formatInclination(deg string) string {
	if deg == "" {
		return "n/a"
	}
	return deg + "°"
}
