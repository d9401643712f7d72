package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"heating_controller/internal/config"
	"heating_controller/internal/hardware"
	"heating_controller/internal/logger"
	"heating_controller/internal/models"
	"heating_controller/internal/publisher"
	"heating_controller/internal/repository"
)

// memStore is an in-memory append-only store with the repository contracts.
type memStore struct {
	mu  sync.Mutex
	now func() time.Time

	readings map[string][]models.TemperatureReading
	states   map[string][]models.StateRecord
	events   []models.ControllerEvent

	readingAppends int
	stateAppends   int

	readErr   error
	appendErr error
	eventErr  error
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:      now,
		readings: map[string][]models.TemperatureReading{},
		states:   map[string][]models.StateRecord{},
	}
}

// seedReading stores a reading at an explicit time without counting it as an append.
func (m *memStore) seedReading(key string, v float64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[key] = append(m.readings[key], models.TemperatureReading{Key: key, Label: key, Value: v, Timestamp: at})
}

// seedState stores a state at an explicit time without counting it as an append.
func (m *memStore) seedState(key string, on bool, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = append(m.states[key], models.StateRecord{Key: key, Label: key, State: on, Timestamp: at})
}

func (m *memStore) repos() *repository.Repository {
	return &repository.Repository{
		Readings: memReadings{m},
		States:   memStates{m},
		Events:   memEvents{m},
	}
}

func (m *memStore) latestState(key string) (models.StateRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.states[key]
	if len(recs) == 0 {
		return models.StateRecord{}, false
	}
	return recs[len(recs)-1], true
}

func (m *memStore) eventCount(typ string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type memReadings struct{ m *memStore }

func (r memReadings) Append(ctx context.Context, key string, value float64, expected *float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.appendErr != nil {
		return r.m.appendErr
	}
	r.m.readingAppends++
	r.m.readings[key] = append(r.m.readings[key], models.TemperatureReading{Key: key, Label: key, Value: value, Expected: expected, Timestamp: r.m.now()})
	return nil
}

func (r memReadings) Latest(ctx context.Context, key string) (*models.TemperatureReading, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	recs := r.m.readings[key]
	if len(recs) == 0 {
		return nil, r.m.readErr
	}
	last := recs[len(recs)-1]
	return &last, r.m.readErr
}

func (r memReadings) AllLatest(ctx context.Context) (map[string]models.TemperatureReading, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.readErr != nil {
		return nil, r.m.readErr
	}
	out := map[string]models.TemperatureReading{}
	for k, recs := range r.m.readings {
		if len(recs) > 0 {
			out[k] = recs[len(recs)-1]
		}
	}
	return out, nil
}

func (r memReadings) Since(ctx context.Context, key string, since time.Time) ([]float64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.readErr != nil {
		return nil, r.m.readErr
	}
	recs := append([]models.TemperatureReading(nil), r.m.readings[key]...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	var out []float64
	for _, rec := range recs {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec.Value)
		}
	}
	return out, nil
}

type memStates struct{ m *memStore }

func (s memStates) Append(ctx context.Context, key string, state bool) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.appendErr != nil {
		return s.m.appendErr
	}
	s.m.stateAppends++
	s.m.states[key] = append(s.m.states[key], models.StateRecord{Key: key, Label: key, State: state, Timestamp: s.m.now()})
	return nil
}

func (s memStates) Latest(ctx context.Context, key string) (*models.StateRecord, error) {
	rec, ok := s.m.latestState(key)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s memStates) AllLatest(ctx context.Context) (map[string]models.StateRecord, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.readErr != nil {
		return nil, s.m.readErr
	}
	out := map[string]models.StateRecord{}
	for k, recs := range s.m.states {
		if len(recs) > 0 {
			out[k] = recs[len(recs)-1]
		}
	}
	return out, nil
}

type memEvents struct{ m *memStore }

func (e memEvents) Append(ctx context.Context, ev models.ControllerEvent) error {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	if e.m.eventErr != nil {
		return e.m.eventErr
	}
	e.m.events = append(e.m.events, ev)
	return nil
}

func (e memEvents) List(ctx context.Context, f repository.EventFilter) ([]models.ControllerEvent, error) {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	return append([]models.ControllerEvent(nil), e.m.events...), nil
}

// clock is a settable time source shared by services and the store.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func defaultControl() config.Control {
	return config.Control{
		AreaThreshold:   16,
		ActivationDelay: 2 * time.Minute,
		Lookback:        10 * time.Minute,
		MinSamples:      3,
	}
}

// allDay is a schedule with one setpoint for the whole day.
func allDay(c float64) []config.ScheduleWindow {
	return []config.ScheduleWindow{{StartHour: 0, EndHour: 24, Temperature: c}}
}

func newTestValveService(rooms []config.Room, valves map[string]hardware.Relay, store *memStore, clk *clock, pub publisher.Publisher) *ValveService {
	cfg := &config.Config{Rooms: rooms, Control: defaultControl()}
	s := NewValveService(cfg, valves, store.repos(), pub, logger.Nop())
	s.now = clk.Now
	s.loc = time.UTC
	return s
}

func newTestStoveService(rooms []config.Room, relay hardware.Relay, store *memStore, clk *clock, pub publisher.Publisher) *StoveService {
	cfg := &config.Config{Rooms: rooms, Control: defaultControl(), Stove: config.Stove{Label: "Stove"}}
	s := NewStoveService(cfg, relay, store.repos(), pub, logger.Nop())
	s.now = clk.Now
	return s
}
