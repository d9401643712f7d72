package config

import (
	"fmt"
	"time"

	"heating_controller/internal/models"
)

// ScheduleWindow is a half-open [StartHour, EndHour) interval with a target temperature.
type ScheduleWindow struct {
	StartHour   int     `mapstructure:"start_hour"`
	EndHour     int     `mapstructure:"end_hour"`
	Temperature float64 `mapstructure:"temperature"` // °C
}

// Room is a heated room with its own sensor and floor-heating valve.
// An empty SensorID or a zero ValvePin means the device is not fitted.
type Room struct {
	Key      string           `mapstructure:"key"`
	Name     string           `mapstructure:"name"`
	SensorID string           `mapstructure:"sensor_id"`
	ValvePin int              `mapstructure:"valve_pin"`
	Area     float64          `mapstructure:"area"` // m²
	Schedule []ScheduleWindow `mapstructure:"temperature_schedule"`
}

// ExpectedTemperature returns the target of the first window containing hour.
// Windows are scanned in list order; overlaps are not validated.
func (r Room) ExpectedTemperature(hour int) (float64, bool) {
	for _, w := range r.Schedule {
		if hour >= w.StartHour && hour < w.EndHour {
			return w.Temperature, true
		}
	}
	return 0, false
}

// Stove is the central heat source shared by all rooms. Pin 0 means no stove relay.
type Stove struct {
	Pin   int    `mapstructure:"pin"`
	Label string `mapstructure:"label"`
}

// Pipe is the heating-pipe sensor; it is sampled but never controlled.
type Pipe struct {
	SensorID string `mapstructure:"sensor_id"`
	Label    string `mapstructure:"label"`
}

// Control holds the decision-engine tunables.
type Control struct {
	AreaThreshold   float64       `mapstructure:"area_threshold"`   // m²
	ActivationDelay time.Duration `mapstructure:"activation_delay"` // valve must be ON this long to count
	Lookback        time.Duration `mapstructure:"lookback"`         // temperature averaging window
	MinSamples      int           `mapstructure:"min_samples"`
}

// Jobs holds cron expressions (with a leading seconds field) for the periodic jobs.
type Jobs struct {
	Temperatures string `mapstructure:"temperatures"`
	Relays       string `mapstructure:"relays"`
	Valves       string `mapstructure:"valves"`
	Stove        string `mapstructure:"stove"`
}

// Hardware selects and tunes the sensor/relay drivers.
type Hardware struct {
	Driver   string        `mapstructure:"driver"` // sysfs | cdev | sim
	GPIOPath string        `mapstructure:"gpio_path"`
	W1Path   string        `mapstructure:"w1_path"`
	Chip     string        `mapstructure:"chip"`
	Timeout  time.Duration `mapstructure:"timeout"` // 0 disables the guard
}

type DB struct {
	Path string `mapstructure:"path"`
}

type HTTP struct {
	Port string `mapstructure:"port"`
}

type Auth struct {
	Enabled     bool          `mapstructure:"enabled"`
	SigningKey  string        `mapstructure:"signing_key"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	AllowSignUp bool          `mapstructure:"allow_sign_up"`
}

type MQTT struct {
	Broker      string `mapstructure:"broker"` // empty disables publishing
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type Log struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // console | json
}

// Config is loaded once at startup and shared read-only afterwards.
type Config struct {
	Rooms    []Room   `mapstructure:"rooms"`
	Stove    Stove    `mapstructure:"stove"`
	Pipe     Pipe     `mapstructure:"pipe"`
	Control  Control  `mapstructure:"control"`
	Schedule Jobs     `mapstructure:"schedule"`
	Hardware Hardware `mapstructure:"hardware"`
	DB       DB       `mapstructure:"db"`
	HTTP     HTTP     `mapstructure:"http"`
	Auth     Auth     `mapstructure:"auth"`
	MQTT     MQTT     `mapstructure:"mqtt"`
	Log      Log      `mapstructure:"log"`
}

// Room looks up a room by key.
func (c *Config) Room(key string) (Room, bool) {
	for _, r := range c.Rooms {
		if r.Key == key {
			return r, true
		}
	}
	return Room{}, false
}

// Labels returns the display label of every entity key, used to seed the store.
func (c *Config) Labels() map[string]string {
	out := make(map[string]string, len(c.Rooms)+2)
	for _, r := range c.Rooms {
		out[r.Key] = labelOr(r.Name, r.Key)
	}
	out[models.KeyPipe] = labelOr(c.Pipe.Label, models.KeyPipe)
	out[models.KeyStove] = labelOr(c.Stove.Label, models.KeyStove)
	return out
}

func labelOr(label, key string) string {
	if label == "" {
		return key
	}
	return label
}

// Validate checks the structural rules the engines rely on.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Rooms))
	for i, r := range c.Rooms {
		if r.Key == "" {
			return newConfigError(fmt.Sprintf("room #%d has no key", i+1), nil)
		}
		if r.Key == models.KeyPipe || r.Key == models.KeyStove {
			return newConfigError(fmt.Sprintf("room key %q is reserved", r.Key), nil)
		}
		if _, dup := seen[r.Key]; dup {
			return newConfigError(fmt.Sprintf("duplicate room key %q", r.Key), nil)
		}
		seen[r.Key] = struct{}{}
		if r.Area < 0 {
			return newConfigError(fmt.Sprintf("room %q has negative area %.1f", r.Key, r.Area), nil)
		}
		for j, w := range r.Schedule {
			if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
				return newConfigError(fmt.Sprintf("room %q window #%d [%d, %d) is not a valid hour range",
					r.Key, j+1, w.StartHour, w.EndHour), nil)
			}
		}
	}
	if c.Control.MinSamples < 1 {
		return newConfigError("control.min_samples must be at least 1", nil)
	}
	if c.Control.Lookback <= 0 {
		return newConfigError("control.lookback must be positive", nil)
	}
	if c.Control.ActivationDelay < 0 {
		return newConfigError("control.activation_delay must not be negative", nil)
	}
	switch c.Hardware.Driver {
	case DriverSysfs, DriverCdev, DriverSim:
	default:
		return newConfigError(fmt.Sprintf("unknown hardware.driver %q", c.Hardware.Driver), nil)
	}
	if c.Auth.Enabled && c.Auth.SigningKey == "" {
		return newConfigError("auth.signing_key is required when auth is enabled", nil)
	}
	return nil
}
