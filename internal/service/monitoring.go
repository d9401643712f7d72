package service

import (
	"context"

	"heating_controller/internal/models"
	"heating_controller/internal/repository"
)

type MonitoringService struct {
	readings repository.ReadingRepo
	states   repository.StateRepo
}

func NewMonitoringService(readings repository.ReadingRepo, states repository.StateRepo) *MonitoringService {
	return &MonitoringService{readings: readings, states: states}
}

// Temperatures returns the latest reading of every entity that has one.
func (s *MonitoringService) Temperatures(ctx context.Context) (map[string]models.TemperatureReading, error) {
	return s.readings.AllLatest(ctx)
}

// Temperature returns the latest reading for key, or nil if there is none.
func (s *MonitoringService) Temperature(ctx context.Context, key string) (*models.TemperatureReading, error) {
	return s.readings.Latest(ctx, key)
}

// Snapshot combines the latest reading and the latest relay state of every
// entity that has a reading. The stove has no sensor and is added from its
// latest state when one exists.
func (s *MonitoringService) Snapshot(ctx context.Context) (map[string]models.EntityState, error) {
	readings, err := s.readings.AllLatest(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.states.AllLatest(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.EntityState, len(readings)+1)
	for key, r := range readings {
		temp := r.Value
		e := models.EntityState{
			Key:         key,
			Label:       r.Label,
			Timestamp:   r.Timestamp.UTC(),
			Temperature: &temp,
			Expected:    r.Expected,
		}
		if st, ok := states[key]; ok {
			on := st.State
			e.HeatingEnabled = &on
		}
		out[key] = e
	}

	if st, ok := states[models.KeyStove]; ok {
		on := st.State
		out[models.KeyStove] = models.EntityState{
			Key:            models.KeyStove,
			Label:          st.Label,
			Timestamp:      st.Timestamp.UTC(),
			HeatingEnabled: &on,
		}
	}
	return out, nil
}
