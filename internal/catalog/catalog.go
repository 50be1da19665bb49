// Package catalog is the in-memory, thread-safe store for the monitored
// constellation: element series keyed by satellite and the latest health
// assessment per satellite. Consumers that want push notification of new
// assessments subscribe for events.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventSeriesUpdated EventType = iota
	EventAssessmentUpdated
)

// Event is emitted to subscribers when a satellite's state changes.
type Event struct {
	Type        EventType
	SatelliteID string
	Assessment  model.HealthAssessment
}

// Catalog stores per-satellite series and assessments behind an RWMutex.
type Catalog struct {
	mu sync.RWMutex

	series      map[string]*model.ElementSeries
	assessments map[string]model.HealthAssessment

	subs    map[int]func(Event)
	nextSub int
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{
		series:      make(map[string]*model.ElementSeries),
		assessments: make(map[string]model.HealthAssessment),
		subs:        make(map[int]func(Event)),
	}
}

// PutSeries stores a satellite's element series. It returns an error when
// the series is empty or its identifier is blank.
func (c *Catalog) PutSeries(s *model.ElementSeries) error {
	if s == nil || s.SatelliteID == "" {
		return fmt.Errorf("series without satellite identifier")
	}
	if s.Len() == 0 {
		return fmt.Errorf("satellite %q: empty series", s.SatelliteID)
	}

	c.mu.Lock()
	c.series[s.SatelliteID] = s
	subs := c.subscribers()
	c.mu.Unlock()

	event := Event{Type: EventSeriesUpdated, SatelliteID: s.SatelliteID}
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Series returns the stored element series for a satellite, or nil.
func (c *Catalog) Series(satelliteID string) *model.ElementSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.series[satelliteID]
}

// AllSeries returns a snapshot map of every stored series.
func (c *Catalog) AllSeries() map[string]*model.ElementSeries {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*model.ElementSeries, len(c.series))
	for id, s := range c.series {
		out[id] = s
	}
	return out
}

// PutAssessment stores a satellite's latest health assessment and notifies
// subscribers outside the lock.
func (c *Catalog) PutAssessment(a model.HealthAssessment) error {
	if a.SatelliteID == "" {
		return fmt.Errorf("assessment without satellite identifier")
	}

	c.mu.Lock()
	c.assessments[a.SatelliteID] = a
	subs := c.subscribers()
	c.mu.Unlock()

	event := Event{Type: EventAssessmentUpdated, SatelliteID: a.SatelliteID, Assessment: a}
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Assessment returns the latest stored assessment for a satellite.
func (c *Catalog) Assessment(satelliteID string) (model.HealthAssessment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.assessments[satelliteID]
	return a, ok
}

// ListAssessments returns every stored assessment ordered by satellite ID.
func (c *Catalog) ListAssessments() []model.HealthAssessment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.HealthAssessment, 0, len(c.assessments))
	for _, a := range c.assessments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SatelliteID < out[j].SatelliteID })
	return out
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function; calling it more than once is harmless.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// subscribers snapshots the registered callbacks. Caller must hold the lock.
func (c *Catalog) subscribers() []func(Event) {
	out := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}
