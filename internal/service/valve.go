package service

import (
	"context"
	"fmt"
	"time"

	"heating_controller/internal/config"
	"heating_controller/internal/hardware"
	"heating_controller/internal/logger"
	"heating_controller/internal/metrics"
	"heating_controller/internal/models"
	"heating_controller/internal/publisher"
	"heating_controller/internal/repository"
)

// ValveService opens a room's floor-heating valve while the room's recent
// average temperature is below its scheduled setpoint.
type ValveService struct {
	rooms    []config.Room
	control  config.Control
	valves   map[string]hardware.Relay
	readings repository.ReadingRepo
	states   repository.StateRepo
	events   repository.EventRepo
	pub      publisher.Publisher
	log      *logger.Logger

	now func() time.Time
	loc *time.Location
}

func NewValveService(cfg *config.Config, valves map[string]hardware.Relay, repos *repository.Repository, pub publisher.Publisher, log *logger.Logger) *ValveService {
	return &ValveService{
		rooms:    cfg.Rooms,
		control:  cfg.Control,
		valves:   valves,
		readings: repos.Readings,
		states:   repos.States,
		events:   repos.Events,
		pub:      pub,
		log:      log.Named("valves"),
		now:      time.Now,
		loc:      time.Local,
	}
}

// UpdateValves evaluates every room once. A failing room is logged and
// skipped; it never stops the remaining rooms.
func (s *ValveService) UpdateValves(ctx context.Context) error {
	now := s.now()
	for _, room := range s.rooms {
		s.updateRoom(ctx, room, now)
	}
	return nil
}

func (s *ValveService) updateRoom(ctx context.Context, room config.Room, now time.Time) {
	log := s.log.With("room", room.Key)

	temps, err := s.readings.Since(ctx, room.Key, now.Add(-s.control.Lookback))
	if err != nil {
		log.Errorw("valve_readings_failed", "err", err)
		return
	}
	if len(temps) < s.control.MinSamples {
		log.Errorw("valve_not_enough_readings", "count", len(temps), "min", s.control.MinSamples)
		return
	}
	avg := mean(temps)

	expected, ok := room.ExpectedTemperature(now.In(s.loc).Hour())
	if !ok {
		log.Errorw("valve_no_schedule_window", "hour", now.In(s.loc).Hour())
		return
	}

	relay, ok := s.valves[room.Key]
	if !ok {
		log.Errorw("valve_relay_missing")
		return
	}

	desired := avg < expected
	current, err := relay.ReadState(ctx)
	if err != nil {
		log.Errorw("valve_read_failed", "err", err)
		return
	}
	metrics.SetRelayState(room.Key, current)

	if current == desired {
		log.Debugw("valve_unchanged", "average", avg, "expected", expected, "state", onOff(desired))
		return
	}

	log.Infow("valve_switch", "average", avg, "expected", expected, "state", onOff(desired))
	err = relay.SetState(ctx, desired)
	metrics.ObserveRelayWrite(room.Key, desired, err)
	if err != nil {
		log.Errorw("valve_write_failed", "err", err)
		return
	}
	if err := s.states.Append(ctx, room.Key, desired); err != nil {
		log.Errorw("valve_store_failed", "err", err)
		return
	}

	s.record(ctx, models.ControllerEvent{
		Type:        models.EventValveChange,
		Key:         room.Key,
		Description: fmt.Sprintf("valve %s: average %.1f°C, expected %.1f°C", onOff(desired), avg, expected),
		Metadata: map[string]any{
			"average":  avg,
			"expected": expected,
			"samples":  len(temps),
			"state":    desired,
		},
	})
	if err := s.pub.PublishState(models.StateRecord{Key: room.Key, Label: room.Name, State: desired, Timestamp: now}); err != nil {
		log.Warnw("valve_publish_failed", "err", err)
	}
}

func (s *ValveService) record(ctx context.Context, e models.ControllerEvent) {
	if err := s.events.Append(ctx, e); err != nil {
		s.log.Warnw("event_append_failed", "type", e.Type, "key", e.Key, "err", err)
	}
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
