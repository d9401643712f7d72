//go:build linux

package hardware

import (
	"context"
	"errors"
	"sync"

	"heating_controller/internal/logger"

	"github.com/warthog618/go-gpiocdev"
)

const cdevConsumer = "heating-controller"

// CdevRelay drives a GPIO output through the Linux GPIO character device.
// The line is requested on Setup and held until Close.
type CdevRelay struct {
	chip string
	pin  int
	log  *logger.Logger

	mu   sync.Mutex
	line *gpiocdev.Line
}

func NewCdevRelay(chip string, pin int, log *logger.Logger) (*CdevRelay, error) {
	if log == nil {
		log = logger.Nop()
	}
	return &CdevRelay{chip: chip, pin: pin, log: log.Named("gpiocdev")}, nil
}

func (r *CdevRelay) Pin() int { return r.pin }

// Setup requests the line as an output, keeping the current level.
func (r *CdevRelay) Setup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line != nil {
		r.log.Debugw("gpio_already_requested", "chip", r.chip, "pin", r.pin)
		return nil
	}
	l, err := gpiocdev.RequestLine(r.chip, r.pin, gpiocdev.AsOutput(), gpiocdev.WithConsumer(cdevConsumer))
	if err != nil {
		return &RelayError{Pin: r.pin, Op: "request", Err: err}
	}
	r.log.Infow("gpio_requested", "chip", r.chip, "pin", r.pin)
	r.line = l
	return nil
}

func (r *CdevRelay) ReadState(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return false, &RelayError{Pin: r.pin, Op: "read", Err: errLineNotRequested}
	}
	v, err := r.line.Value()
	if err != nil {
		return false, &RelayError{Pin: r.pin, Op: "read", Err: err}
	}
	return v == 1, nil
}

func (r *CdevRelay) SetState(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return &RelayError{Pin: r.pin, Op: "write", Err: errLineNotRequested}
	}
	v := 0
	if on {
		v = 1
	}
	r.log.Debugw("gpio_set", "pin", r.pin, "state", on)
	if err := r.line.SetValue(v); err != nil {
		return &RelayError{Pin: r.pin, Op: "write", Err: err}
	}
	return nil
}

// Close releases the line.
func (r *CdevRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.line == nil {
		return nil
	}
	err := r.line.Close()
	r.line = nil
	return err
}

var errLineNotRequested = errors.New("line not requested, call Setup first")
