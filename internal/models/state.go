package models

import "time"

// StateRecord is an on/off transition of a valve or the stove.
type StateRecord struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	State     bool      `json:"heating_enabled"`
	Timestamp time.Time `json:"timestamp"`
}

// EntityState is one row of the combined snapshot served by the read API.
type EntityState struct {
	Key            string    `json:"key"`
	Label          string    `json:"label"`
	Timestamp      time.Time `json:"timestamp"`
	Temperature    *float64  `json:"temperature,omitempty"`
	Expected       *float64  `json:"expected_temperature,omitempty"`
	HeatingEnabled *bool     `json:"heating_enabled,omitempty"`
}
