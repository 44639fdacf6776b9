package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/internal/ingest"
	"github.com/signalsfoundry/orbitwatch/model"
	"github.com/signalsfoundry/orbitwatch/timectrl"
)

var start = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeLoader struct {
	result ingest.Result
	calls  int
}

func (f *fakeLoader) Load(context.Context) ingest.Result {
	f.calls++
	return f.result
}

func fixtureRecords() []model.DebrisRecord {
	return []model.DebrisRecord{
		{Name: "COSMOS 1408 DEB", CatalogID: 49863, AltitudeKm: 470, InclinationDeg: "82.56", RiskTier: model.RiskHigh, Latitude: 0, Longitude: 0},
		{Name: "IRIDIUM 33 DEB", CatalogID: 33776, AltitudeKm: 780, InclinationDeg: "86.39", RiskTier: model.RiskMedium, Latitude: 45, Longitude: 90},
		{Name: "GEO R/B", CatalogID: 11111, AltitudeKm: 35786, RiskTier: model.RiskLow, Latitude: -30, Longitude: -120},
	}
}

func newTestModel(t *testing.T, cfg Config) (Model, *fakeLoader) {
	t.Helper()
	loader := &fakeLoader{result: ingest.Result{
		Records:  fixtureRecords(),
		Source:   ingest.SourceLive,
		LoadedAt: start,
	}}
	if cfg.Loader == nil {
		cfg.Loader = loader
	}
	if cfg.Clock == nil {
		cfg.Clock = timectrl.NewTimeController(start, 100*time.Millisecond, timectrl.RealTime)
	}
	cfg.Store = catalog.NewStore()
	return New(context.Background(), cfg), loader
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// ready sizes the window and delivers the load result. With an 80x40
// window the map is 80x25 cells and a record at (0, 0) sits at cell
// (40, 12), which is terminal row 15.
func ready(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	m, _ = update(t, m, m.loadCmd()())
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_LoadPopulatesTableAndStats(t *testing.T) {
	m, loader := newTestModel(t, Config{})
	m = ready(t, m)

	assert.Equal(t, 1, loader.calls)
	require.Len(t, m.rows, 3)
	assert.Len(t, m.table.Rows(), 3)
	assert.Equal(t, "COSMOS 1408 DEB", m.table.Rows()[0][0])
	assert.Equal(t, "n/a", m.table.Rows()[2][3])
	assert.True(t, m.mapAttached)

	out := m.View()
	assert.Contains(t, out, "tracked 3")
	assert.Contains(t, out, "high risk 1")
	assert.Contains(t, out, "LEO 2")
	assert.Contains(t, out, "Live data")
}

func TestModel_FallbackNoticeShown(t *testing.T) {
	loader := &fakeLoader{result: ingest.Result{
		Records: ingest.SampleRecords(),
		Source:  ingest.SourceFallback,
		Notice:  ingest.FallbackNotice,
	}}
	m, _ := newTestModel(t, Config{Loader: loader})
	m = ready(t, m)

	assert.Contains(t, m.View(), "Showing sample data")
	assert.Len(t, m.rows, len(ingest.SampleRecords()))
}

func TestModel_LoadingBeforeResult(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})

	assert.Contains(t, m.View(), "Loading catalog")
	assert.Empty(t, m.rows)
}

func TestModel_SearchFiltersTable(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m = ready(t, m)

	m, _ = update(t, m, runes("/"))
	require.True(t, m.search.Focused())

	for _, r := range "cosmos" {
		m, _ = update(t, m, runes(string(r)))
	}
	assert.Equal(t, "cosmos", m.store.Criteria().Search)
	require.Len(t, m.rows, 1)
	assert.Equal(t, 49863, m.rows[0].CatalogID)

	// Letters typed into the search box must not trigger shortcuts.
	m, _ = update(t, m, runes("q"))
	assert.False(t, m.quitting)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.search.Focused())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "cosmosq", m.store.Criteria().Search, "backspace goes to the table once search is done")
}

func TestModel_RiskCycle(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m = ready(t, m)

	m, _ = update(t, m, runes("r"))
	assert.Equal(t, string(model.RiskHigh), m.store.Criteria().Risk)
	require.Len(t, m.rows, 1)

	m, _ = update(t, m, runes("r"))
	assert.Equal(t, string(model.RiskMedium), m.store.Criteria().Risk)
	require.Len(t, m.rows, 1)
	assert.Equal(t, 33776, m.rows[0].CatalogID)

	m, _ = update(t, m, runes("a"))
	assert.Equal(t, model.RiskAll, m.store.Criteria().Risk)
	assert.Len(t, m.rows, 3)
}

func TestModel_HoverShowsTooltip(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m = ready(t, m)

	m, _ = update(t, m, tea.MouseMsg{X: 40, Y: 15, Action: tea.MouseActionMotion})
	tip, ok := m.panels.Tooltip()
	require.True(t, ok)
	assert.Equal(t, 49863, tip.Record.CatalogID)

	// Header takes three lines, so the pointer's map row 12 is view line 15
	// and the tooltip sits on the map row just below it.
	lines := strings.Split(m.View(), "\n")
	require.Greater(t, len(lines), headerRows+13)
	assert.Contains(t, lines[headerRows+13], "#49863")
	assert.NotContains(t, lines[headerRows+12], "#49863")
	assert.Contains(t, m.View(), "Critical zone")

	m, _ = update(t, m, tea.MouseMsg{X: 2, Y: 4, Action: tea.MouseActionMotion})
	_, ok = m.panels.Tooltip()
	assert.False(t, ok)
}

func TestModel_ClickOpensDetailAndFocuses(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m = ready(t, m)

	m, _ = update(t, m, tea.MouseMsg{X: 40, Y: 15, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	d, ok := m.panels.Detail()
	require.True(t, ok)
	assert.Equal(t, "COSMOS 1408 DEB", d.Record.Name)
	assert.Contains(t, d.Advisory, "Critical zone")
	assert.True(t, m.surface.Flying())
	assert.False(t, m.surface.IdleMotion())
	assert.Contains(t, m.View(), "Critical zone")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, ok = m.panels.Detail()
	assert.False(t, ok)
}

func TestModel_EnterFocusesCursorRow(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m = ready(t, m)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.surface.Flying())
	_, open := m.panels.Detail()
	assert.False(t, open, "row focus does not open the detail panel")

	// The flight lands after two seconds and idle motion resumes a second
	// later.
	m, _ = update(t, m, frameMsg(start.Add(2*time.Second)))
	assert.False(t, m.surface.Flying())
	cam := m.surface.Camera()
	assert.InDelta(t, 45, cam.LatitudeDeg, 1e-9)
	assert.InDelta(t, 2780, cam.AltitudeKm, 1e-9)
	assert.False(t, m.surface.IdleMotion())

	m, _ = update(t, m, frameMsg(start.Add(3*time.Second)))
	assert.True(t, m.surface.IdleMotion())
}

func TestModel_FrameDrivesIdleMotion(t *testing.T) {
	m, _ := newTestModel(t, Config{IdleRateDegPerSec: 2})
	m = ready(t, m)

	m, cmd := update(t, m, frameMsg(start.Add(5*time.Second)))
	assert.NotNil(t, cmd, "frame loop reschedules itself")
	assert.InDelta(t, 10, m.surface.Camera().LongitudeDeg, 1e-9)
}

func TestModel_SmallTerminalShowsAdvisory(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 12})
	m, _ = update(t, m, m.loadCmd()())

	assert.False(t, m.mapAttached)
	assert.Len(t, m.rows, 3)
	assert.Contains(t, m.View(), mapUnavailable)

	// Growing the window attaches the surface and replays the markers.
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	require.True(t, m.mapAttached)
	m, _ = update(t, m, tea.MouseMsg{X: 40, Y: 15, Action: tea.MouseActionMotion})
	_, ok := m.panels.Tooltip()
	assert.True(t, ok)
}

func TestModel_DisableMap(t *testing.T) {
	m, _ := newTestModel(t, Config{DisableMap: true})
	m = ready(t, m)

	assert.Nil(t, m.surface)
	assert.False(t, m.mapAttached)
	assert.Len(t, m.rows, 3)
	assert.Contains(t, m.View(), mapUnavailable)

	m, _ = update(t, m, tea.MouseMsg{X: 40, Y: 15, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, ok := m.panels.Detail()
	assert.False(t, ok)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, Config{})
	m = ready(t, m)

	m, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
