package service

import "time"

// LogFilter supports history filtering by time range, type and entity key.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "VALVE_CHANGE", "STOVE_CHANGE", "JOB_FAILED"
	Key  string    // "" means every entity
}
