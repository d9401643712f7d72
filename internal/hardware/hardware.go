// Package hardware provides temperature sensors and relays behind small
// capability interfaces. Real drivers talk to the Linux sysfs and GPIO
// character device; fakes allow testing without hardware.
package hardware

import (
	"context"
	"errors"
	"fmt"
)

// Sensor reads a temperature in °C.
type Sensor interface {
	Read(ctx context.Context) (float64, error)
}

// Relay drives an on/off output (valve or stove).
type Relay interface {
	ReadState(ctx context.Context) (bool, error)
	SetState(ctx context.Context, on bool) error
	// Setup prepares the output line. It is safe to call more than once.
	Setup(ctx context.Context) error
}

// ErrHardwareTimeout is returned when a device call exceeds the configured timeout.
var ErrHardwareTimeout = errors.New("hardware: call timed out")

// SensorError reports a failed or implausible sensor reading.
type SensorError struct {
	ID  string
	Err error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("sensor %s: %v", e.ID, e.Err)
}

func (e *SensorError) Unwrap() error { return e.Err }

// RelayError reports a failed relay read, write or setup.
type RelayError struct {
	Pin int
	Op  string
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %d: %s: %v", e.Pin, e.Op, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }
