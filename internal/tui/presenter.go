package tui

import (
	"sync"

	"github.com/signalsfoundry/orbitwatch/internal/view"
	"github.com/signalsfoundry/orbitwatch/model"
)

// Panels implements view.Presenter by holding the latest table, tooltip and
// detail panel for the model to draw on its next View.
type Panels struct {
	mu      sync.Mutex
	rows    []model.DebrisRecord
	version uint64

	tooltip    view.Tooltip
	hasTooltip bool
	detail     view.DetailPanel
	hasDetail  bool
}

var _ view.Presenter = (*Panels)(nil)

// RenderTable replaces the table rows.
func (p *Panels) RenderTable(records []model.DebrisRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append([]model.DebrisRecord(nil), records...)
	p.version++
}

func (p *Panels) ShowTooltip(t view.Tooltip) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tooltip, p.hasTooltip = t, true
}

func (p *Panels) HideTooltip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tooltip, p.hasTooltip = view.Tooltip{}, false
}

func (p *Panels) ShowDetail(d view.DetailPanel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail, p.hasDetail = d, true
}

func (p *Panels) CloseDetail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail, p.hasDetail = view.DetailPanel{}, false
}

// Table returns the current rows and a version that changes on every
// RenderTable.
func (p *Panels) Table() ([]model.DebrisRecord, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.DebrisRecord(nil), p.rows...), p.version
}

// Tooltip returns the visible tooltip, if any.
func (p *Panels) Tooltip() (view.Tooltip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tooltip, p.hasTooltip
}

// Detail returns the open detail panel, if any.
func (p *Panels) Detail() (view.DetailPanel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detail, p.hasDetail
}
