package service

import (
	"context"
	"time"

	"heating_controller/internal/config"
	"heating_controller/internal/hardware"
	"heating_controller/internal/logger"
	"heating_controller/internal/metrics"
	"heating_controller/internal/models"
	"heating_controller/internal/publisher"
	"heating_controller/internal/repository"
)

// SamplingService copies sensor temperatures and relay levels into the store.
type SamplingService struct {
	cfg      *config.Config
	dev      *hardware.Devices
	readings repository.ReadingRepo
	states   repository.StateRepo
	pub      publisher.Publisher
	log      *logger.Logger

	now func() time.Time
	loc *time.Location
}

func NewSamplingService(cfg *config.Config, dev *hardware.Devices, repos *repository.Repository, pub publisher.Publisher, log *logger.Logger) *SamplingService {
	return &SamplingService{
		cfg:      cfg,
		dev:      dev,
		readings: repos.Readings,
		states:   repos.States,
		pub:      pub,
		log:      log.Named("sampling"),
		now:      time.Now,
		loc:      time.Local,
	}
}

// ReadTemperatures samples the pipe, then every room in order. Rooms are
// stored with the setpoint in force at sampling time.
func (s *SamplingService) ReadTemperatures(ctx context.Context) error {
	now := s.now()
	if s.dev.Pipe != nil {
		s.sampleTemperature(ctx, models.KeyPipe, s.cfg.Pipe.Label, s.dev.Pipe, nil, now)
	}
	hour := now.In(s.loc).Hour()
	for _, room := range s.cfg.Rooms {
		sensor, ok := s.dev.Sensors[room.Key]
		if !ok {
			continue
		}
		var expected *float64
		if v, ok := room.ExpectedTemperature(hour); ok {
			expected = &v
		}
		s.sampleTemperature(ctx, room.Key, room.Name, sensor, expected, now)
	}
	return nil
}

func (s *SamplingService) sampleTemperature(ctx context.Context, key, label string, sensor hardware.Sensor, expected *float64, now time.Time) {
	v, err := sensor.Read(ctx)
	metrics.ObserveReading(key, v, err)
	if err != nil {
		s.log.Warnw("sensor_read_failed", "key", key, "err", err)
		return
	}
	s.log.Infow("temperature", "key", key, "celsius", v)

	if err := s.readings.Append(ctx, key, v, expected); err != nil {
		s.log.Errorw("temperature_store_failed", "key", key, "err", err)
		return
	}
	r := models.TemperatureReading{Key: key, Label: label, Value: v, Expected: expected, Timestamp: now}
	if err := s.pub.PublishReading(r); err != nil {
		s.log.Warnw("temperature_publish_failed", "key", key, "err", err)
	}
}

// ReadRelayStates samples the stove relay, then every valve in room order.
func (s *SamplingService) ReadRelayStates(ctx context.Context) error {
	now := s.now()
	if s.dev.Stove != nil {
		s.sampleRelay(ctx, models.KeyStove, s.cfg.Stove.Label, s.dev.Stove, now)
	}
	for _, room := range s.cfg.Rooms {
		relay, ok := s.dev.Valves[room.Key]
		if !ok {
			s.log.Warnw("valve_relay_missing", "key", room.Key)
			continue
		}
		s.sampleRelay(ctx, room.Key, room.Name, relay, now)
	}
	return nil
}

func (s *SamplingService) sampleRelay(ctx context.Context, key, label string, relay hardware.Relay, now time.Time) {
	on, err := relay.ReadState(ctx)
	if err != nil {
		s.log.Warnw("relay_read_failed", "key", key, "err", err)
		return
	}
	metrics.SetRelayState(key, on)
	s.log.Infow("relay_state", "key", key, "state", onOff(on))

	if err := s.states.Append(ctx, key, on); err != nil {
		s.log.Errorw("relay_store_failed", "key", key, "err", err)
		return
	}
	if err := s.pub.PublishState(models.StateRecord{Key: key, Label: label, State: on, Timestamp: now}); err != nil {
		s.log.Warnw("relay_publish_failed", "key", key, "err", err)
	}
}
