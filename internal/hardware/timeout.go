package hardware

import (
	"context"
	"time"
)

// WithSensorTimeout bounds every Read of s. A zero d returns s unchanged.
func WithSensorTimeout(s Sensor, d time.Duration) Sensor {
	if d <= 0 || s == nil {
		return s
	}
	return &timedSensor{inner: s, d: d}
}

// WithRelayTimeout bounds every call on r. A zero d returns r unchanged.
func WithRelayTimeout(r Relay, d time.Duration) Relay {
	if d <= 0 || r == nil {
		return r
	}
	return &timedRelay{inner: r, d: d}
}

type timedSensor struct {
	inner Sensor
	d     time.Duration
}

func (t *timedSensor) Read(ctx context.Context) (float64, error) {
	return callWithTimeout(ctx, t.d, t.inner.Read)
}

type timedRelay struct {
	inner Relay
	d     time.Duration
}

func (t *timedRelay) ReadState(ctx context.Context) (bool, error) {
	return callWithTimeout(ctx, t.d, t.inner.ReadState)
}

func (t *timedRelay) SetState(ctx context.Context, on bool) error {
	_, err := callWithTimeout(ctx, t.d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.inner.SetState(ctx, on)
	})
	return err
}

func (t *timedRelay) Setup(ctx context.Context) error {
	_, err := callWithTimeout(ctx, t.d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.inner.Setup(ctx)
	})
	return err
}

type result[T any] struct {
	v   T
	err error
}

// callWithTimeout runs fn on its own goroutine. When d elapses first the
// goroutine is abandoned and ErrHardwareTimeout is returned.
func callWithTimeout[T any](parent context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		if err := parent.Err(); err != nil {
			return zero, err
		}
		return zero, ErrHardwareTimeout
	}
}
