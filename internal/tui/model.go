// Package tui is the interactive terminal front end: a header with catalog
// statistics, a map plot, search and risk inputs, the debris table, and the
// hover tooltip and detail panel driven by the view synchronizer.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/signalsfoundry/orbitwatch/catalog"
	"github.com/signalsfoundry/orbitwatch/internal/globe"
	"github.com/signalsfoundry/orbitwatch/internal/ingest"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/view"
	"github.com/signalsfoundry/orbitwatch/model"
	"github.com/signalsfoundry/orbitwatch/timectrl"
)

// Loader performs the one ingestion load. *ingest.Adapter satisfies it.
type Loader interface {
	Load(ctx context.Context) ingest.Result
}

// Config wires the UI to its collaborators. Zero values get defaults.
type Config struct {
	Loader            Loader
	Store             *catalog.Store
	Clock             *timectrl.TimeController
	Logger            logging.Logger
	Theme             *Theme
	FrameInterval     time.Duration
	IdleRateDegPerSec float64
	// DisableMap runs without a rendering surface; the table and statistics
	// still work.
	DisableMap bool
}

const (
	defaultFrameInterval = 100 * time.Millisecond

	headerRows  = 3
	statusRows  = 1
	tableRows   = 8
	tableChrome = 2 // column titles and their border
	footerRows  = 1
	minMapRows  = 4
	detailWidth = 40
)

var riskCycle = []string{model.RiskAll, string(model.RiskHigh), string(model.RiskMedium), string(model.RiskLow)}

type catalogLoadedMsg struct {
	result ingest.Result
}

type frameMsg time.Time

// Model is the bubbletea model for the catalog browser.
type Model struct {
	ctx    context.Context
	cfg    Config
	theme  Theme
	keymap KeyMap
	log    logging.Logger

	store   *catalog.Store
	panels  *Panels
	sync    *view.Synchronizer
	surface *globe.Surface
	clock   *timectrl.TimeController

	search textinput.Model
	table  table.Model
	help   help.Model

	rows        []model.DebrisRecord
	rowsVersion uint64

	result      ingest.Result
	loaded      bool
	riskIdx     int
	mapAttached bool
	mapHeight   int
	width       int
	height      int
	quitting    bool
}

// New builds the model. The store subscription lives as long as the store.
func New(ctx context.Context, cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = defaultFrameInterval
	}
	if cfg.Store == nil {
		cfg.Store = catalog.NewStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = timectrl.NewTimeController(time.Now(), cfg.FrameInterval, timectrl.RealTime)
	}
	theme := DefaultTheme
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}

	panels := &Panels{}
	opts := view.DefaultOptions()
	// Terminal cells, not pixels.
	opts.TooltipOffset = view.ScreenPoint{X: 2}
	sync := view.New(nil, panels, cfg.Clock, view.WithOptions(opts), view.WithLogger(cfg.Logger))
	cfg.Store.Subscribe(sync.HandleEvent)

	var surface *globe.Surface
	if !cfg.DisableMap {
		surface = globe.New(globe.Config{
			Width:             1,
			Height:            1,
			IdleRateDegPerSec: cfg.IdleRateDegPerSec,
			IdleMotion:        true,
		}, cfg.Clock, cfg.Logger)
		cfg.Clock.AddListener(surface.Tick)
	}

	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "name or catalog id"
	search.CharLimit = 64

	tbl := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(tableRows),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Selected = theme.Selected
	tbl.SetStyles(styles)

	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:     ctx,
		cfg:     cfg,
		theme:   theme,
		keymap:  DefaultKeyMap(),
		log:     cfg.Logger,
		store:   cfg.Store,
		panels:  panels,
		sync:    sync,
		surface: surface,
		clock:   cfg.Clock,
		search:  search,
		table:   tbl,
		help:    help.New(),
	}
}

// Init starts the load and the frame loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.frameCmd())
}

func (m Model) loadCmd() tea.Cmd {
	loader, ctx := m.cfg.Loader, m.ctx
	if loader == nil {
		loader = ingest.NewAdapter(nil, ingest.WithLogger(m.log))
	}
	return func() tea.Msg {
		return catalogLoadedMsg{result: loader.Load(ctx)}
	}
}

func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.cfg.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case catalogLoadedMsg:
		m.result = msg.result
		m.loaded = true
		m.store.Load(msg.result.Records)
		m.log.Info(m.ctx, "catalog ready",
			logging.String("source", string(msg.result.Source)),
			logging.Int("records", len(msg.result.Records)),
		)

	case frameMsg:
		m.clock.SetTime(time.Time(msg))
		cmd = m.frameCmd()

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.syncTable()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return tea.Quit
	}

	if m.search.Focused() {
		if key.Matches(msg, m.keymap.EndSearch) {
			m.search.Blur()
			m.table.Focus()
			return nil
		}
		prev := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if v := m.search.Value(); v != prev {
			m.store.SetSearchText(v)
		}
		return cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keymap.Search):
		m.table.Blur()
		return m.search.Focus()

	case key.Matches(msg, m.keymap.CycleRisk):
		m.setRisk((m.riskIdx + 1) % len(riskCycle))

	case key.Matches(msg, m.keymap.ClearRisk):
		m.setRisk(0)

	case key.Matches(msg, m.keymap.Focus):
		if rec, ok := m.cursorRecord(); ok {
			m.sync.Focus(rec)
		}

	case key.Matches(msg, m.keymap.Close):
		m.sync.CloseDetail()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) setRisk(idx int) {
	if err := m.store.SetRiskFilter(riskCycle[idx]); err != nil {
		m.log.Warn(m.ctx, "risk filter rejected", logging.Err(err))
		return
	}
	m.riskIdx = idx
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if !m.mapAttached {
		return
	}
	at := view.ScreenPoint{X: float64(msg.X), Y: float64(msg.Y - headerRows)}
	switch {
	case msg.Action == tea.MouseActionMotion:
		m.sync.PointerMove(at)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.sync.PointerClick(at)
	}
}

func (m *Model) cursorRecord() (model.DebrisRecord, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return model.DebrisRecord{}, false
	}
	return m.rows[c], true
}

// syncTable copies the presenter's rows into the table widget when they
// changed.
func (m *Model) syncTable() {
	rows, version := m.panels.Table()
	if version == m.rowsVersion {
		return
	}
	m.rows, m.rowsVersion = rows, version

	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, tableRow(r))
	}
	m.table.SetRows(out)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// layout sizes the widgets and attaches the map surface once there is room
// for it. A surface that becomes too small is detached so pointer input and
// marker updates stop reaching it.
func (m *Model) layout() {
	m.help.Width = m.width
	m.search.Width = max(m.width/3, 10)
	m.table.SetColumns(columns(m.width - detailWidth))
	m.table.SetWidth(max(m.width-detailWidth, 20))
	m.mapHeight = m.height - headerRows - statusRows - tableRows - tableChrome - footerRows

	if m.surface == nil {
		return
	}
	if m.mapHeight < minMapRows {
		if m.mapAttached {
			m.sync.AttachSurface(nil)
			m.mapAttached = false
		}
		return
	}
	m.surface.Resize(m.width, m.mapHeight)
	if !m.mapAttached {
		m.sync.AttachSurface(m.surface)
		m.mapAttached = true
		if m.loaded {
			m.sync.Render(m.store.Filtered())
		}
	}
}
