package models

import "time"

// Reserved entity keys for equipment that is not a room.
const (
	KeyPipe  = "pipe"
	KeyStove = "stove"
)

// TemperatureReading is a single sensor sample as persisted by the store.
type TemperatureReading struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Value     float64   `json:"temperature"`                    // °C
	Expected  *float64  `json:"expected_temperature,omitempty"` // °C, setpoint at sampling time
	Timestamp time.Time `json:"timestamp"`
}
