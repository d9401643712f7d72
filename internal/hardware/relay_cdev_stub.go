//go:build !linux

package hardware

import (
	"context"
	"errors"

	"heating_controller/internal/logger"
)

var errCdevUnsupported = errors.New("gpiocdev: not supported on this platform (requires Linux)")

// CdevRelay is not available on non-Linux platforms.
type CdevRelay struct{ pin int }

// NewCdevRelay returns an error on non-Linux platforms.
func NewCdevRelay(_ string, pin int, _ *logger.Logger) (*CdevRelay, error) {
	return nil, &RelayError{Pin: pin, Op: "request", Err: errCdevUnsupported}
}

func (r *CdevRelay) Pin() int { return r.pin }

func (r *CdevRelay) Setup(context.Context) error {
	return &RelayError{Pin: r.pin, Op: "request", Err: errCdevUnsupported}
}

func (r *CdevRelay) ReadState(context.Context) (bool, error) {
	return false, &RelayError{Pin: r.pin, Op: "read", Err: errCdevUnsupported}
}

func (r *CdevRelay) SetState(context.Context, bool) error {
	return &RelayError{Pin: r.pin, Op: "write", Err: errCdevUnsupported}
}

func (r *CdevRelay) Close() error { return nil }
