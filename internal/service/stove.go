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

var errNoStoveRelay = &config.ConfigurationError{Msg: "stove relay is not configured"}

// StoveService runs the stove only while enough floor area has had its
// valve open for at least the activation delay.
type StoveService struct {
	rooms   []config.Room
	control config.Control
	relay   hardware.Relay
	label   string
	states  repository.StateRepo
	events  repository.EventRepo
	pub     publisher.Publisher
	log     *logger.Logger

	now func() time.Time
}

func NewStoveService(cfg *config.Config, relay hardware.Relay, repos *repository.Repository, pub publisher.Publisher, log *logger.Logger) *StoveService {
	return &StoveService{
		rooms:   cfg.Rooms,
		control: cfg.Control,
		relay:   relay,
		label:   cfg.Stove.Label,
		states:  repos.States,
		events:  repos.Events,
		pub:     pub,
		log:     log.Named("stove"),
		now:     time.Now,
	}
}

// UpdateStove decides from persisted valve states, not live relay levels.
// Every failure is returned to the caller.
func (s *StoveService) UpdateStove(ctx context.Context) error {
	if s.relay == nil {
		return errNoStoveRelay
	}
	now := s.now()

	states, err := s.states.AllLatest(ctx)
	if err != nil {
		return fmt.Errorf("load valve states: %w", err)
	}

	total := s.openArea(states, now)
	metrics.SetOpenArea(total)
	desired := total >= s.control.AreaThreshold

	current, err := s.relay.ReadState(ctx)
	if err != nil {
		return fmt.Errorf("read stove relay: %w", err)
	}
	metrics.SetRelayState(models.KeyStove, current)

	if current == desired {
		s.log.Debugw("stove_unchanged", "open_area", total, "state", onOff(desired))
		return nil
	}

	s.log.Infow("stove_switch", "open_area", total, "threshold", s.control.AreaThreshold, "state", onOff(desired))
	err = s.relay.SetState(ctx, desired)
	metrics.ObserveRelayWrite(models.KeyStove, desired, err)
	if err != nil {
		return fmt.Errorf("write stove relay: %w", err)
	}
	if err := s.states.Append(ctx, models.KeyStove, desired); err != nil {
		return fmt.Errorf("store stove state: %w", err)
	}

	if err := s.events.Append(ctx, models.ControllerEvent{
		Type:        models.EventStoveChange,
		Key:         models.KeyStove,
		Description: fmt.Sprintf("stove %s: open area %.1f m²", onOff(desired), total),
		Metadata: map[string]any{
			"open_area": total,
			"threshold": s.control.AreaThreshold,
			"state":     desired,
		},
	}); err != nil {
		s.log.Warnw("event_append_failed", "type", models.EventStoveChange, "err", err)
	}
	if err := s.pub.PublishState(models.StateRecord{Key: models.KeyStove, Label: s.label, State: desired, Timestamp: now}); err != nil {
		s.log.Warnw("stove_publish_failed", "err", err)
	}
	return nil
}

// openArea sums the areas of rooms whose latest persisted state is ON and
// at least ActivationDelay old.
func (s *StoveService) openArea(states map[string]models.StateRecord, now time.Time) float64 {
	var total float64
	for _, room := range s.rooms {
		st, ok := states[room.Key]
		if !ok {
			continue
		}
		s.log.Debugw("stove_valve_state", "room", room.Key, "state", st.State, "since", st.Timestamp)
		if st.State && now.Sub(st.Timestamp) >= s.control.ActivationDelay {
			total += room.Area
		}
	}
	return total
}
