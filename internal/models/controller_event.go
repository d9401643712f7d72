package models

import "time"

// Controller event types.
const (
	EventValveChange = "VALVE_CHANGE"
	EventStoveChange = "STOVE_CHANGE"
	EventJobFailed   = "JOB_FAILED"
)

// ControllerEvent is a single entry of the decision audit trail.
type ControllerEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // VALVE_CHANGE | STOVE_CHANGE | JOB_FAILED
	Key         string    `json:"key,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
