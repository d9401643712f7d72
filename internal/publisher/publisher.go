// Package publisher mirrors readings and relay transitions to an MQTT broker.
package publisher

import (
	"encoding/json"
	"time"

	"heating_controller/internal/models"
)

// Publisher pushes controller data to subscribers. Failures must never
// affect control decisions; callers log and move on.
type Publisher interface {
	PublishReading(r models.TemperatureReading) error
	PublishState(s models.StateRecord) error
	Close() error
}

// Topic layout under the configured prefix.
const (
	readingsTopic = "readings"
	statesTopic   = "states"
)

func ReadingTopic(prefix, key string) string { return prefix + "/" + readingsTopic + "/" + key }
func StateTopic(prefix, key string) string   { return prefix + "/" + statesTopic + "/" + key }

// ReadingPayload is the JSON body published for a temperature sample.
type ReadingPayload struct {
	Key         string   `json:"key"`
	Temperature float64  `json:"temperature"`
	Expected    *float64 `json:"expected_temperature,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// StatePayload is the JSON body published for a relay level.
type StatePayload struct {
	Key            string `json:"key"`
	HeatingEnabled bool   `json:"heating_enabled"`
	Timestamp      string `json:"timestamp"`
}

func FormatReading(r models.TemperatureReading) ([]byte, error) {
	return json.Marshal(ReadingPayload{
		Key:         r.Key,
		Temperature: r.Value,
		Expected:    r.Expected,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
	})
}

func FormatState(s models.StateRecord) ([]byte, error) {
	return json.Marshal(StatePayload{
		Key:            s.Key,
		HeatingEnabled: s.State,
		Timestamp:      s.Timestamp.UTC().Format(time.RFC3339),
	})
}

// Nop discards everything; used when no broker is configured.
type Nop struct{}

func (Nop) PublishReading(models.TemperatureReading) error { return nil }
func (Nop) PublishState(models.StateRecord) error          { return nil }
func (Nop) Close() error                                   { return nil }
