// Package catalog holds the loaded debris records and the live filter over
// them.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/signalsfoundry/orbitwatch/core"
	"github.com/signalsfoundry/orbitwatch/model"
)

// ErrInvalidRiskFilter is returned for a risk selector that is neither a
// tier nor "all".
var ErrInvalidRiskFilter = errors.New("invalid risk filter")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	// EventCatalogReady follows a Load.
	EventCatalogReady EventType = iota
	// EventFilterChanged follows a search or risk filter change.
	EventFilterChanged
)

func (t EventType) String() string {
	switch t {
	case EventCatalogReady:
		return "catalog-ready"
	case EventFilterChanged:
		return "filter-changed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers after the filtered subset is recomputed.
// Filtered is a snapshot; subscribers may keep it.
type Event struct {
	Type     EventType
	Filtered []model.DebrisRecord
}

// Criteria are the filter inputs. An empty Search matches everything, as
// does a Risk of "" or "all".
type Criteria struct {
	Search string
	Risk   string
}

// Stats summarises the full catalog regardless of the filter.
type Stats struct {
	Total    int
	HighRisk int
	LEO      int
}

// MetricsRecorder receives catalog sizes after every recompute.
type MetricsRecorder interface {
	SetCatalogCounts(total, filtered, highRisk int)
}

// Option configures a Store.
type Option func(*Store)

// WithMetricsRecorder reports counts to rec after every change.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Store) { s.metrics = rec }
}

// Store is an in-memory, thread-safe catalog. The full record set is only
// ever replaced wholesale by Load; the filtered subset is recomputed in full
// on every input change.
type Store struct {
	mu sync.RWMutex

	all      []model.DebrisRecord
	filtered []model.DebrisRecord
	search   string
	risk     string

	subs   map[int]func(Event)
	nextID int

	metrics MetricsRecorder
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		risk: model.RiskAll,
		subs: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the record set, resets the filter inputs and emits
// EventCatalogReady.
func (s *Store) Load(records []model.DebrisRecord) {
	s.mu.Lock()
	s.all = append([]model.DebrisRecord(nil), records...)
	s.search = ""
	s.risk = model.RiskAll
	ev := s.recomputeLocked(EventCatalogReady)
	s.mu.Unlock()

	s.publish(ev)
}

// SetSearchText updates the search input and emits EventFilterChanged.
func (s *Store) SetSearchText(text string) {
	s.mu.Lock()
	s.search = text
	ev := s.recomputeLocked(EventFilterChanged)
	s.mu.Unlock()

	s.publish(ev)
}

// SetRiskFilter updates the risk selector ("all" or a tier name) and emits
// EventFilterChanged. An unknown selector leaves the state untouched.
func (s *Store) SetRiskFilter(risk string) error {
	risk, err := ParseRiskSelector(risk)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.risk = risk
	ev := s.recomputeLocked(EventFilterChanged)
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

// ParseRiskSelector normalises a risk selector. Blank means "all".
func ParseRiskSelector(risk string) (string, error) {
	risk = strings.ToLower(strings.TrimSpace(risk))
	if risk == "" {
		return model.RiskAll, nil
	}
	if risk != model.RiskAll && !model.RiskTier(risk).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRiskFilter, risk)
	}
	return risk, nil
}

// Filtered returns a snapshot of the current filtered subset.
func (s *Store) Filtered() []model.DebrisRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.DebrisRecord(nil), s.filtered...)
}

// All returns a snapshot of the full record set.
func (s *Store) All() []model.DebrisRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.DebrisRecord(nil), s.all...)
}

// Criteria returns the current filter inputs.
func (s *Store) Criteria() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Criteria{Search: s.search, Risk: s.risk}
}

// Lookup returns the record with the given catalog ID from the full set.
func (s *Store) Lookup(catalogID int) (model.DebrisRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.all {
		if r.CatalogID == catalogID {
			return r, true
		}
	}
	return model.DebrisRecord{}, false
}

// Stats counts the full record set.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeStats(s.all)
}

// Subscribe registers a callback for store events. It returns an unsubscribe
// function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// recomputeLocked rebuilds the filtered subset and returns the event to
// publish once the lock is released. Callers hold s.mu.
func (s *Store) recomputeLocked(typ EventType) Event {
	s.filtered = Filter(s.all, Criteria{Search: s.search, Risk: s.risk})
	if s.metrics != nil {
		st := computeStats(s.all)
		s.metrics.SetCatalogCounts(st.Total, len(s.filtered), st.HighRisk)
	}
	return Event{
		Type:     typ,
		Filtered: append([]model.DebrisRecord(nil), s.filtered...),
	}
}

func (s *Store) publish(ev Event) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	// Deliver in registration order.
	slices.Sort(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.RUnlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(ev)
	}
}

// Filter returns the records matching both the search text and the risk
// selector, preserving input order. The result is never nil.
func Filter(records []model.DebrisRecord, c Criteria) []model.DebrisRecord {
	needle := strings.ToLower(c.Search)
	risk := strings.ToLower(c.Risk)

	out := make([]model.DebrisRecord, 0, len(records))
	for _, r := range records {
		if !matchesSearch(r, needle) {
			continue
		}
		if risk != "" && risk != model.RiskAll && string(r.RiskTier) != risk {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r model.DebrisRecord, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Name), needle) {
		return true
	}
	return strings.Contains(r.CatalogIDString(), needle)
}

func computeStats(records []model.DebrisRecord) Stats {
	st := Stats{Total: len(records)}
	for _, r := range records {
		if r.RiskTier == model.RiskHigh {
			st.HighRisk++
		}
		if r.AltitudeKm < core.LEOCeilingKm {
			st.LEO++
		}
	}
	return st
}
