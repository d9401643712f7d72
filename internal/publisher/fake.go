package publisher

import (
	"sync"

	"heating_controller/internal/models"
)

// Fake records published messages for test assertions.
type Fake struct {
	mu sync.Mutex

	Readings []models.TemperatureReading
	States   []models.StateRecord

	// PublishError, if set, is returned by every publish call.
	PublishError error

	Closed bool
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) PublishReading(r models.TemperatureReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Readings = append(f.Readings, r)
	return nil
}

func (f *Fake) PublishState(s models.StateRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.States = append(f.States, s)
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// StateCount returns the number of recorded state messages.
func (f *Fake) StateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.States)
}
