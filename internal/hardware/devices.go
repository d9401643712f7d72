package hardware

import (
	"context"
	"fmt"

	"heating_controller/internal/config"
	"heating_controller/internal/logger"
	"heating_controller/internal/models"
)

// Devices is the set of capabilities attached to the configured entities.
// Missing entries mean the device is not fitted.
type Devices struct {
	Pipe    Sensor
	Stove   Relay
	Sensors map[string]Sensor // by room key
	Valves  map[string]Relay  // by room key
}

// NewDevices returns an empty device set.
func NewDevices() *Devices {
	return &Devices{Sensors: map[string]Sensor{}, Valves: map[string]Relay{}}
}

type closer interface{ Close() error }

// Build creates drivers for every fitted device in cfg.
func Build(cfg *config.Config, log *logger.Logger) (*Devices, error) {
	hw := cfg.Hardware
	d := NewDevices()
	if hw.Driver == config.DriverSim {
		return buildSim(cfg), nil
	}

	newRelay := func(pin int) (Relay, error) {
		switch hw.Driver {
		case config.DriverCdev:
			r, err := NewCdevRelay(hw.Chip, pin, log)
			if err != nil {
				return nil, err
			}
			return WithRelayTimeout(r, hw.Timeout), nil
		default:
			return WithRelayTimeout(NewSysfsRelay(hw.GPIOPath, pin, log), hw.Timeout), nil
		}
	}
	newSensor := func(id string) Sensor {
		return WithSensorTimeout(NewDS18B20(hw.W1Path, id), hw.Timeout)
	}

	if cfg.Pipe.SensorID != "" {
		d.Pipe = newSensor(cfg.Pipe.SensorID)
	}
	if cfg.Stove.Pin != 0 {
		r, err := newRelay(cfg.Stove.Pin)
		if err != nil {
			return nil, fmt.Errorf("stove relay: %w", err)
		}
		d.Stove = r
	}
	for _, room := range cfg.Rooms {
		if room.SensorID != "" {
			d.Sensors[room.Key] = newSensor(room.SensorID)
		}
		if room.ValvePin != 0 {
			r, err := newRelay(room.ValvePin)
			if err != nil {
				return nil, fmt.Errorf("valve relay %s: %w", room.Key, err)
			}
			d.Valves[room.Key] = r
		}
	}
	return d, nil
}

func buildSim(cfg *config.Config) *Devices {
	keys := make([]string, 0, len(cfg.Rooms))
	for _, room := range cfg.Rooms {
		keys = append(keys, room.Key)
	}
	house := NewSimHouse(keys)

	d := NewDevices()
	d.Pipe = house.Sensor(models.KeyPipe)
	d.Stove = house.Relay(models.KeyStove, cfg.Stove.Pin)
	for _, room := range cfg.Rooms {
		d.Sensors[room.Key] = house.Sensor(room.Key)
		d.Valves[room.Key] = house.Relay(room.Key, room.ValvePin)
	}
	return d
}

// SetupAll prepares the stove relay, then every valve in room order.
func (d *Devices) SetupAll(ctx context.Context, rooms []config.Room) error {
	if d.Stove != nil {
		if err := d.Stove.Setup(ctx); err != nil {
			return fmt.Errorf("setup stove relay: %w", err)
		}
	}
	for _, room := range rooms {
		v, ok := d.Valves[room.Key]
		if !ok {
			continue
		}
		if err := v.Setup(ctx); err != nil {
			return fmt.Errorf("setup valve %s: %w", room.Key, err)
		}
	}
	return nil
}

// Close releases drivers that hold kernel resources.
func (d *Devices) Close() error {
	var firstErr error
	release := func(r Relay) {
		if t, ok := r.(*timedRelay); ok {
			r = t.inner
		}
		if c, ok := r.(closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if d.Stove != nil {
		release(d.Stove)
	}
	for _, v := range d.Valves {
		release(v)
	}
	return firstErr
}
